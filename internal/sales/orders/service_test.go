package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/documents"
)

type memoryRepo struct {
	orders map[int64]*SalesOrder
	lines  map[int64][]documents.Line
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]*SalesOrder{}, lines: map[int64][]documents.Line{}}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Create(ctx context.Context, so SalesOrder) (int64, error) {
	so.ID = r.id()
	r.orders[so.ID] = &so
	return so.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	so, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *so
	out.Lines = append([]documents.Line(nil), r.lines[id]...)
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	var out []SalesOrder
	for _, so := range r.orders {
		out = append(out, *so)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	so, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["notes"]; ok {
		so.Notes = v.(string)
	}
	if v, ok := updates["subtotal"]; ok {
		so.Subtotal = v.(float64)
	}
	if v, ok := updates["discount_amount"]; ok {
		so.DiscountAmount = v.(float64)
	}
	if v, ok := updates["tax_amount"]; ok {
		so.TaxAmount = v.(float64)
	}
	if v, ok := updates["rounding_adjustment"]; ok {
		so.RoundingAdjustment = v.(float64)
	}
	if v, ok := updates["total_amount"]; ok {
		so.TotalAmount = v.(float64)
	}
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, status SalesOrderStatus, userID int64) error {
	so, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	so.Status = status
	return nil
}

func (r *memoryRepo) InsertLine(ctx context.Context, soID int64, line documents.Line) (int64, error) {
	line.ID = r.id()
	r.lines[soID] = append(r.lines[soID], line)
	return line.ID, nil
}

func (r *memoryRepo) DeleteLines(ctx context.Context, soID int64) error {
	delete(r.lines, soID)
	return nil
}

func (r *memoryRepo) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), len(r.orders)+1), nil
}

type fakeCatalog struct {
	products map[int64]docengine.ProductInfo
}

func (c fakeCatalog) EngineInfo(ctx context.Context, productID int64) (docengine.ProductInfo, error) {
	p, ok := c.products[productID]
	if !ok {
		return docengine.ProductInfo{}, fmt.Errorf("product %d not found", productID)
	}
	return p, nil
}

type staticRounding struct{}

func (staticRounding) RoundingPolicy(ctx context.Context) (docengine.RoundingPolicy, error) {
	return docengine.DefaultRoundingPolicy(), nil
}

func dptr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	catalog := fakeCatalog{products: map[int64]docengine.ProductInfo{
		1: {
			ID: 1, Name: "Desk Lamp", SKU: "DL-01",
			CostPrice: dptr(300), SalePrice: dptr(450), MRP: dptr(500),
			PurchaseTaxType: docengine.TaxExclusive, PurchaseTaxRate: dptr(0.12),
			SaleTaxType: docengine.TaxExclusive, SaleTaxRate: dptr(0.12),
			AllowOverridePrice: true,
		},
	}}
	return NewService(repo, documents.NewBuilder(catalog), staticRounding{}), repo
}

func soDate() time.Time {
	return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
}

func TestCreateUsesSalePriceAndComputesTotals(t *testing.T) {
	svc, _ := newTestService()

	so, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerID: 3,
		OrderDate:  soDate(),
		Lines:      []documents.LineRequest{{ProductID: 1, Quantity: 2, Discount: 100}},
	}, 1)
	require.NoError(t, err)

	require.Equal(t, "SO-2604-0001", so.Number)
	require.Equal(t, SalesOrderStatusDraft, so.Status)
	require.Len(t, so.Lines, 1)
	require.Equal(t, 450.0, so.Lines[0].UnitPrice, "sale direction uses sale price")

	require.InDelta(t, 900.0, so.Subtotal, 0.001)
	require.InDelta(t, 100.0, so.DiscountAmount, 0.001)
	require.InDelta(t, 96.0, so.TaxAmount, 0.001, "12%% on the discounted base")
	require.InDelta(t, 996.0, so.TotalAmount, 0.001)
}

func TestCreateClampsPriceOverrideToMRP(t *testing.T) {
	svc, _ := newTestService()

	over := 600.0
	so, err := svc.Create(context.Background(), CreateSalesOrderRequest{
		CustomerID: 3,
		OrderDate:  soDate(),
		Lines:      []documents.LineRequest{{ProductID: 1, Quantity: 1, UnitPrice: &over}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 500.0, so.Lines[0].UnitPrice, "price is clamped to the MRP ceiling")
}

func TestConfirmRequiresLinesAndFreezesEdits(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	so, err := svc.Create(ctx, CreateSalesOrderRequest{
		CustomerID: 3, OrderDate: soDate(),
		Lines: []documents.LineRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, so.ID, 2)
	require.NoError(t, err)
	require.Equal(t, SalesOrderStatusConfirmed, confirmed.Status)

	_, err = svc.Confirm(ctx, so.ID, 2)
	require.ErrorIs(t, err, ErrInvalidState)

	notes := "rush delivery"
	_, err = svc.Update(ctx, so.ID, UpdateSalesOrderRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrInvalidState, "confirmed orders are frozen")

	empty := SalesOrder{Status: SalesOrderStatusDraft, CustomerID: 3, OrderDate: soDate()}
	emptyID, err := repo.Create(ctx, empty)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, emptyID, 2)
	require.ErrorIs(t, err, ErrValidation, "an order without lines cannot confirm")
}

func TestCompleteAndCancelGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	so, err := svc.Create(ctx, CreateSalesOrderRequest{
		CustomerID: 3, OrderDate: soDate(),
		Lines: []documents.LineRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, so.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState, "draft cannot complete")

	_, err = svc.Confirm(ctx, so.ID, 1)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, so.ID, 1)
	require.NoError(t, err)
	require.Equal(t, SalesOrderStatusCompleted, done.Status)

	_, err = svc.Cancel(ctx, so.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState, "completed is terminal")
}

func TestFetchParentRequiresConfirmed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	so, err := svc.Create(ctx, CreateSalesOrderRequest{
		CustomerID: 3, OrderDate: soDate(),
		Lines: []documents.LineRequest{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.FetchParent(ctx, so.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Confirm(ctx, so.ID, 1)
	require.NoError(t, err)

	parent, err := svc.FetchParent(ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, so.Number, parent.Number)
	require.Len(t, parent.Lines, 1)
	require.Equal(t, 2, parent.Lines[0].Quantity)
}
