// internal/pkg/redis/client.go
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Client 是 go-redis 的一个薄封装，统一创建和连通性检查。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建客户端并做一次 Ping，启动期就暴露配置问题。
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要 pipeline 等高级能力的调用方。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Close 关闭底层连接池。
func (c *Client) Close() error {
	return c.rdb.Close()
}
