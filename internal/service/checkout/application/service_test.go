// internal/service/checkout/application/service_test.go
package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
	invdomain "storefront/internal/service/inventory/domain"
	promodomain "storefront/internal/service/promotion/domain"
)

// fakeLedger 用互斥锁模拟提交事务的串行化：复检库存、扣减、落单,
// 任何一步失败都不留下痕迹。
type fakeLedger struct {
	mu        sync.Mutex
	stock     map[string]int
	commitErr error
	orders    []*domain.Order
	couponUse map[uint]int
}

func newFakeLedger(stock map[string]int) *fakeLedger {
	return &fakeLedger{stock: stock, couponUse: make(map[uint]int)}
}

func (f *fakeLedger) CommitOrder(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.commitErr != nil {
		return f.commitErr
	}

	var violations []invdomain.StockViolation
	for _, item := range order.Items {
		if available, ok := f.stock[item.ProductID]; ok && item.Quantity > available {
			violations = append(violations, invdomain.StockViolation{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			})
		}
	}
	if len(violations) > 0 {
		return &invdomain.StockError{Violations: violations}
	}

	for _, item := range order.Items {
		if _, ok := f.stock[item.ProductID]; ok {
			f.stock[item.ProductID] -= item.Quantity
		}
	}
	if order.CouponID != nil {
		f.couponUse[*order.CouponID]++
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeLedger) FindByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) FindByTransactionID(_ context.Context, transactionID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentTransactionID == transactionID {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	return nil
}

func (f *fakeLedger) committed() []*domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Order, len(f.orders))
	copy(out, f.orders)
	return out
}

type fakeCatalog struct {
	lines []invdomain.PricedLine
	err   error
}

func (f *fakeCatalog) Load(_ context.Context, _ []invdomain.Line) ([]invdomain.PricedLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

type fakeCoupons struct {
	applied *port.AppliedCoupon
	err     error
	called  bool
}

func (f *fakeCoupons) Evaluate(_ context.Context, _ string, _ []invdomain.PricedLine, _ decimal.Decimal, _ string, _ time.Time) (*port.AppliedCoupon, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.applied, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	txnID   string
	err     error
	amounts []string
}

func (f *fakeGateway) IssueClientToken(_ context.Context) (string, error) {
	return "client-token", nil
}

func (f *fakeGateway) Charge(_ context.Context, _ string, amount string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.amounts = append(f.amounts, amount)
	return f.txnID, nil
}

func (f *fakeGateway) charged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.amounts))
	copy(out, f.amounts)
	return out
}

type fakeOrphans struct {
	mu      sync.Mutex
	reports []port.OrphanedCharge
}

func (f *fakeOrphans) Report(_ context.Context, charge port.OrphanedCharge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, charge)
	return nil
}

func (f *fakeOrphans) reported() []port.OrphanedCharge {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]port.OrphanedCharge, len(f.reports))
	copy(out, f.reports)
	return out
}

type fixture struct {
	svc     *CheckoutService
	ledger  *fakeLedger
	catalog *fakeCatalog
	coupons *fakeCoupons
	gateway *fakeGateway
	orphans *fakeOrphans
}

func newFixture(catalog *fakeCatalog, ledger *fakeLedger) *fixture {
	f := &fixture{
		ledger:  ledger,
		catalog: catalog,
		coupons: &fakeCoupons{},
		gateway: &fakeGateway{txnID: "txn_001"},
		orphans: &fakeOrphans{},
	}
	f.svc = NewCheckoutService(ledger, catalog, f.coupons, f.gateway, f.orphans,
		noop.NewTracerProvider().Tracer("test"))
	return f
}

func pricedLines() []invdomain.PricedLine {
	return []invdomain.PricedLine{
		{ProductID: "p1", Title: "Widget", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 2, Available: 10},
		{ProductID: "p2", Title: "Gadget", UnitPrice: decimal.RequireFromString("20.00"), Quantity: 1, Available: 10},
	}
}

func checkoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		Email: "a@b.com",
		Shipping: ShippingInfo{
			FullName: "Ada Lovelace",
			Address:  "12 Analytical Way",
			City:     "London",
			Country:  "GB",
		},
		Items: []ItemInput{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		PaymentNonce: "nonce-abc",
	}
}

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))

	result, err := f.svc.Checkout(context.Background(), checkoutRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, "txn_001", result.TransactionID)
	assert.Equal(t, []string{"100.00"}, f.gateway.charged())

	orders := f.ledger.committed()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusPaid, orders[0].Status)
	assert.Equal(t, "100.00", orders[0].TotalAmount.StringFixed(2))
	assert.Equal(t, 8, f.ledger.stock["p1"])
	assert.False(t, f.coupons.called)
	assert.Empty(t, f.orphans.reported())
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(nil))
	req := checkoutRequest()
	req.Items = nil

	_, err := f.svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
	assert.Empty(t, f.gateway.charged())
	assert.Empty(t, f.ledger.committed())
}

func TestCheckoutInvalidShipping(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(nil))
	req := checkoutRequest()
	req.Shipping.Country = ""

	_, err := f.svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidShipping)
	assert.Empty(t, f.gateway.charged())
}

func TestCheckoutUnknownProduct(t *testing.T) {
	f := newFixture(&fakeCatalog{err: invdomain.ErrProductNotFound}, newFakeLedger(nil))

	_, err := f.svc.Checkout(context.Background(), checkoutRequest())
	assert.ErrorIs(t, err, invdomain.ErrProductNotFound)
	assert.Empty(t, f.gateway.charged())
}

// 优惠校验失败时立即返回，网关和台账都没被碰过。
func TestCheckoutCouponRejected(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))
	f.coupons.err = promodomain.ErrCouponExpired

	req := checkoutRequest()
	req.CouponCode = "SAVE20"

	_, err := f.svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, promodomain.ErrCouponExpired)
	assert.Empty(t, f.gateway.charged())
	assert.Empty(t, f.ledger.committed())
}

func TestCheckoutWithCoupon(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))
	f.coupons.applied = &port.AppliedCoupon{
		CouponID: 7,
		Code:     "SAVE20",
		Discount: decimal.RequireFromString("20.00"),
	}

	req := checkoutRequest()
	req.CouponCode = "save20"

	result, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)

	// 扣款金额是折后价
	assert.Equal(t, []string{"80.00"}, f.gateway.charged())

	orders := f.ledger.committed()
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].CouponID)
	assert.Equal(t, uint(7), *orders[0].CouponID)
	assert.Equal(t, "SAVE20", orders[0].CouponCode)
	assert.Equal(t, 1, f.ledger.couponUse[7])
}

// 全额抵扣：订单照常落库，但网关从头到尾没有被调用。
func TestCheckoutZeroTotalSkipsGateway(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))
	f.coupons.applied = &port.AppliedCoupon{
		CouponID: 7,
		Code:     "FREE100",
		Discount: decimal.RequireFromString("100.00"),
	}

	req := checkoutRequest()
	req.CouponCode = "FREE100"
	req.PaymentNonce = "" // 零元订单不需要 nonce

	result, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, result.TransactionID)
	assert.Empty(t, f.gateway.charged())

	orders := f.ledger.committed()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusPaid, orders[0].Status)
	assert.Equal(t, "0.00", orders[0].TotalAmount.StringFixed(2))
	assert.Empty(t, orders[0].PaymentTransactionID)
}

func TestCheckoutMissingNonce(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))
	req := checkoutRequest()
	req.PaymentNonce = ""

	_, err := f.svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrMissingPaymentNonce)
	assert.Empty(t, f.gateway.charged())
	assert.Empty(t, f.ledger.committed())
}

// 明显超卖在扣款之前就被挡住。
func TestCheckoutStockGuardBeforeCharge(t *testing.T) {
	lines := pricedLines()
	lines[0].Available = 1
	f := newFixture(&fakeCatalog{lines: lines}, newFakeLedger(map[string]int{"p1": 1, "p2": 10}))

	_, err := f.svc.Checkout(context.Background(), checkoutRequest())

	var stockErr *invdomain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.Violations[0].ProductID)
	assert.Empty(t, f.gateway.charged())
	assert.Empty(t, f.ledger.committed())
}

func TestCheckoutPaymentDeclined(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 10, "p2": 10}))
	f.gateway.err = errors.Wrap(domain.ErrPaymentDeclined, "insufficient funds")

	_, err := f.svc.Checkout(context.Background(), checkoutRequest())
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)

	// 拒付发生在提交之前：没有订单、没有扣减、没有孤儿扣款
	assert.Empty(t, f.ledger.committed())
	assert.Equal(t, 10, f.ledger.stock["p1"])
	assert.Empty(t, f.orphans.reported())
}

// 已扣款但提交失败：上报孤儿扣款，错误照常返回。
func TestCheckoutOrphanedCharge(t *testing.T) {
	ledger := newFakeLedger(map[string]int{"p1": 10, "p2": 10})
	ledger.commitErr = errors.New("deadlock found when trying to get lock")
	f := newFixture(&fakeCatalog{lines: pricedLines()}, ledger)

	_, err := f.svc.Checkout(context.Background(), checkoutRequest())
	require.Error(t, err)

	reports := f.orphans.reported()
	require.Len(t, reports, 1)
	assert.Equal(t, "txn_001", reports[0].TransactionID)
	assert.Equal(t, "100.00", reports[0].Amount)
	assert.NotEmpty(t, reports[0].OrderRef)
	assert.Contains(t, reports[0].Reason, "deadlock")
}

// 零元订单提交失败时没有扣过款，也就没有孤儿扣款要报。
func TestCheckoutZeroTotalCommitFailureReportsNothing(t *testing.T) {
	ledger := newFakeLedger(map[string]int{"p1": 10, "p2": 10})
	ledger.commitErr = errors.New("connection reset")
	f := newFixture(&fakeCatalog{lines: pricedLines()}, ledger)
	f.coupons.applied = &port.AppliedCoupon{CouponID: 7, Code: "FREE100", Discount: decimal.RequireFromString("100.00")}

	req := checkoutRequest()
	req.CouponCode = "FREE100"
	req.PaymentNonce = ""

	_, err := f.svc.Checkout(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, f.orphans.reported())
}

// 提交事务内的权威复检失败时，错误仍是带明细的库存错误。
func TestCheckoutCommitStockRecheck(t *testing.T) {
	// 目录读取时还显示有货，提交时已经被别人买走
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(map[string]int{"p1": 1, "p2": 10}))

	_, err := f.svc.Checkout(context.Background(), checkoutRequest())

	var stockErr *invdomain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Empty(t, f.ledger.committed())

	// 复检发生在扣款之后：这笔扣款成了孤儿并被上报
	require.Len(t, f.orphans.reported(), 1)
	assert.Equal(t, "txn_001", f.orphans.reported()[0].TransactionID)
}

// 两个并发请求抢最后一件库存：恰好一单成交，另一单拿到库存错误。
func TestCheckoutConcurrentOversell(t *testing.T) {
	lines := []invdomain.PricedLine{
		{ProductID: "p1", Title: "Widget", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 1, Available: 1},
	}
	ledger := newFakeLedger(map[string]int{"p1": 1})
	f := newFixture(&fakeCatalog{lines: lines}, ledger)

	req := func() *CheckoutRequest {
		r := checkoutRequest()
		r.Items = []ItemInput{{ProductID: "p1", Quantity: 1}}
		return r
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Checkout(context.Background(), req())
		}(i)
	}
	wg.Wait()

	succeeded, outOfStock := 0, 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *invdomain.StockError
		if errors.As(err, &stockErr) {
			outOfStock++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, ledger.stock["p1"])
	assert.Len(t, ledger.committed(), 1)
}

func TestIssueClientToken(t *testing.T) {
	f := newFixture(&fakeCatalog{lines: pricedLines()}, newFakeLedger(nil))
	token, err := f.svc.IssueClientToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "client-token", token)
}
