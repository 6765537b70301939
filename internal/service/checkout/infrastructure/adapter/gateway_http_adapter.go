// internal/service/checkout/infrastructure/adapter/gateway_http_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/checkout/domain"
)

// PaymentHTTPAdapter 是 port.PaymentGateway 的 HTTP 实现，
// 对接外部支付处理器的两个端点：客户端令牌和扣款。
// 它只做协议翻译和错误归一化，从不自己重试。
type PaymentHTTPAdapter struct {
	client     *httpclient.Client
	baseURL    string
	merchantID string
	apiKey     string
}

// NewPaymentHTTPAdapter 创建支付网关适配器。
func NewPaymentHTTPAdapter(client *httpclient.Client, baseURL, merchantID, apiKey string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{
		client:     client,
		baseURL:    baseURL,
		merchantID: merchantID,
		apiKey:     apiKey,
	}
}

type clientTokenResponse struct {
	ClientToken string `json:"clientToken"`
}

type chargeRequest struct {
	MerchantID         string `json:"merchantId"`
	PaymentMethodNonce string `json:"paymentMethodNonce"`
	// 定点两位小数字符串，避免浮点漂移
	Amount string `json:"amount"`
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	ReasonCode    string `json:"reasonCode"`
	Message       string `json:"message"`
}

// IssueClientToken 获取前端初始化支付控件所需的令牌。
func (a *PaymentHTTPAdapter) IssueClientToken(ctx context.Context) (string, error) {
	resp, err := a.client.PostJSON(ctx, "gateway.IssueClientToken", a.baseURL+"/client_token",
		a.authHeaders(), map[string]string{"merchantId": a.merchantID})
	if err != nil {
		return "", errors.Wrap(domain.ErrGatewayUnavailable, err.Error())
	}
	if err := a.checkStatus(resp); err != nil {
		return "", err
	}

	var body clientTokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", errors.Wrap(domain.ErrGatewayUnavailable, "malformed client token response")
	}
	if body.ClientToken == "" {
		return "", errors.Wrap(domain.ErrGatewayConfig, "gateway returned empty client token")
	}
	return body.ClientToken, nil
}

// Charge 发起 authorize-and-capture，把网关的结果归一化为
// 结账核心的错误分类。
func (a *PaymentHTTPAdapter) Charge(ctx context.Context, nonce, amount string) (string, error) {
	resp, err := a.client.PostJSON(ctx, "gateway.Charge", a.baseURL+"/transactions",
		a.authHeaders(), chargeRequest{
			MerchantID:         a.merchantID,
			PaymentMethodNonce: nonce,
			Amount:             amount,
		})
	if err != nil {
		return "", errors.Wrap(domain.ErrGatewayUnavailable, err.Error())
	}
	if err := a.checkStatus(resp); err != nil {
		return "", err
	}

	var body chargeResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", errors.Wrap(domain.ErrGatewayUnavailable, "malformed charge response")
	}
	if !body.Success {
		// 处理器明确拒绝：终态，用户换一种支付方式再试
		return "", errors.Wrapf(domain.ErrPaymentDeclined, "gateway declined: %s %s", body.ReasonCode, body.Message)
	}
	if body.TransactionID == "" {
		return "", errors.Wrap(domain.ErrGatewayUnavailable, "gateway reported success without a transaction id")
	}
	return body.TransactionID, nil
}

func (a *PaymentHTTPAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}

// checkStatus 把 HTTP 状态码翻译成错误分类：
// 认证类是运营配置问题，5xx 是网关侧故障（可稍后重试）。
func (a *PaymentHTTPAdapter) checkStatus(resp *httpclient.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(domain.ErrGatewayConfig, "gateway rejected credentials (status %d)", resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.Wrapf(domain.ErrGatewayUnavailable, "gateway returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return errors.Wrapf(domain.ErrGatewayUnavailable, "unexpected gateway status %d", resp.StatusCode)
	}
	return nil
}
