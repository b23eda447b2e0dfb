package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

type memoryRepo struct {
	invoices map[int64]*SaleInvoice
	lines    map[int64][]documents.Line
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: map[int64]*SaleInvoice{}, lines: map[int64][]documents.Line{}}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Create(ctx context.Context, inv SaleInvoice) (int64, error) {
	inv.ID = r.id()
	r.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*SaleInvoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *inv
	out.Lines = append([]documents.Line(nil), r.lines[id]...)
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListInvoicesRequest) ([]SaleInvoice, int, error) {
	var out []SaleInvoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["notes"]; ok {
		inv.Notes = v.(string)
	}
	if v, ok := updates["subtotal"]; ok {
		inv.Subtotal = v.(float64)
	}
	if v, ok := updates["discount_amount"]; ok {
		inv.DiscountAmount = v.(float64)
	}
	if v, ok := updates["tax_amount"]; ok {
		inv.TaxAmount = v.(float64)
	}
	if v, ok := updates["rounding_adjustment"]; ok {
		inv.RoundingAdjustment = v.(float64)
	}
	if v, ok := updates["total_amount"]; ok {
		inv.TotalAmount = v.(float64)
	}
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, userID int64) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	return nil
}

func (r *memoryRepo) InsertLine(ctx context.Context, invoiceID int64, line documents.Line) (int64, error) {
	line.ID = r.id()
	r.lines[invoiceID] = append(r.lines[invoiceID], line)
	return line.ID, nil
}

func (r *memoryRepo) DeleteLines(ctx context.Context, invoiceID int64) error {
	delete(r.lines, invoiceID)
	return nil
}

func (r *memoryRepo) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	return fmt.Sprintf("INV-%s-%04d", date.Format("0601"), len(r.invoices)+1), nil
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

type fakeStock struct {
	applied   []inventory.DocumentInput
	available map[int64][]string
}

func (s *fakeStock) ApplySale(ctx context.Context, input inventory.DocumentInput) error {
	s.applied = append(s.applied, input)
	return nil
}

func (s *fakeStock) AvailableSerials(ctx context.Context, productID int64) ([]string, error) {
	return s.available[productID], nil
}

type fakeParents struct {
	parents map[int64]docengine.ParentDocument
}

func (f fakeParents) FetchParent(ctx context.Context, parentID int64) (docengine.ParentDocument, error) {
	p, ok := f.parents[parentID]
	if !ok {
		return docengine.ParentDocument{}, fmt.Errorf("sales order %d not found", parentID)
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

func testProducts() map[int64]docengine.ProductInfo {
	return map[int64]docengine.ProductInfo{
		1: {
			ID: 1, Name: "Desk Lamp", SKU: "DL-01",
			CostPrice: dptr(300), SalePrice: dptr(450), MRP: dptr(500),
			PurchaseTaxType: docengine.TaxExclusive, PurchaseTaxRate: dptr(0.12),
			SaleTaxType: docengine.TaxExclusive, SaleTaxRate: dptr(0.12),
		},
		2: {
			ID: 2, Name: "Access Point", SKU: "AP-01",
			CostPrice: dptr(200), SalePrice: dptr(280), MRP: dptr(300),
			PurchaseTaxType: docengine.TaxExclusive, PurchaseTaxRate: dptr(0.18),
			SaleTaxType: docengine.TaxExclusive, SaleTaxRate: dptr(0.18),
			Serialized: true,
		},
	}
}

func confirmedOrderParent(lineID int64) docengine.ParentDocument {
	rate := decimal.NewFromFloat(0.12)
	return docengine.ParentDocument{
		ID:     50,
		Number: "SO-2604-0001",
		Lines: []docengine.ParentLine{
			{
				ID: lineID, ProductID: 1, ProductName: "Desk Lamp", SKU: "DL-01",
				Quantity:  3,
				UnitPrice: decimal.NewFromInt(450),
				Discount:  decimal.NewFromInt(50),
				Tax:       decimal.NewFromFloat(156),
				Total:     decimal.NewFromFloat(1456),
				TaxType:   docengine.TaxExclusive, TaxRate: &rate,
			},
		},
	}
}

func newTestService() (*Service, *memoryRepo, *fakeStock) {
	repo := newMemoryRepo()
	stock := &fakeStock{available: map[int64][]string{}}
	parents := fakeParents{parents: map[int64]docengine.ParentDocument{
		50: confirmedOrderParent(7),
	}}
	builder := documents.NewBuilder(fakeCatalog{products: testProducts()})
	return NewService(repo, builder, staticRounding{}, stock, parents), repo, stock
}

func invDate() time.Time {
	return time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)
}

func TestCreateLinkedInvoiceInheritsOrderLines(t *testing.T) {
	svc, _, _ := newTestService()

	soID := int64(50)
	inv, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID:   3,
		SalesOrderID: &soID,
		InvoiceDate:  invDate(),
	}, 1)
	require.NoError(t, err)

	require.False(t, inv.IsDirect)
	require.Len(t, inv.Lines, 1)
	require.Equal(t, 3, inv.Lines[0].Quantity)
	require.Equal(t, 450.0, inv.Lines[0].UnitPrice)
	require.Equal(t, 50.0, inv.Lines[0].Discount)
	require.Equal(t, int64(7), inv.Lines[0].ParentLineID)
}

func TestLinkedInvoiceQuantityIsReadOnly(t *testing.T) {
	svc, _, _ := newTestService()

	soID := int64(50)
	qty := 2
	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID:   3,
		SalesOrderID: &soID,
		InvoiceDate:  invDate(),
		LinkedLines:  []documents.LinkedLineRequest{{ParentLineID: 7, Quantity: &qty}},
	}, 1)
	var locked *docengine.FieldLockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, docengine.FieldQuantity, locked.Field)
}

func TestLinkedInvoiceDiscountIsReadOnly(t *testing.T) {
	svc, _, _ := newTestService()

	soID := int64(50)
	disc := 10.0
	_, err := svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID:   3,
		SalesOrderID: &soID,
		InvoiceDate:  invDate(),
		LinkedLines:  []documents.LinkedLineRequest{{ParentLineID: 7, Discount: &disc}},
	}, 1)
	var locked *docengine.DiscountLockedError
	require.ErrorAs(t, err, &locked)
}

func TestPostConsumesSerialsFromAvailablePool(t *testing.T) {
	svc, _, stock := newTestService()
	ctx := context.Background()
	stock.available[2] = []string{"AP001", "AP002", "AP003"}

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:  3,
		InvoiceDate: invDate(),
		Lines: []documents.LineRequest{
			{ProductID: 2, Quantity: 2, Serials: []string{"AP001", "AP003"}},
		},
	}, 1)
	require.NoError(t, err)
	require.True(t, inv.IsDirect)

	posted, err := svc.Post(ctx, inv.ID, 4)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPosted, posted.Status)

	require.Len(t, stock.applied, 1)
	input := stock.applied[0]
	require.Equal(t, "INVOICE", input.DocType)
	require.Equal(t, inv.Number, input.DocCode)
	require.Len(t, input.Lines, 1)
	require.InDelta(t, 2.0, input.Lines[0].Qty, 0.001)
	require.Equal(t, []string{"AP001", "AP003"}, input.Lines[0].Serials)
}

func TestPostRejectsSerialOutsidePool(t *testing.T) {
	svc, _, stock := newTestService()
	ctx := context.Background()
	stock.available[2] = []string{"AP001"}

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:  3,
		InvoiceDate: invDate(),
		Lines: []documents.LineRequest{
			{ProductID: 2, Quantity: 1, Serials: []string{"AP999"}},
		},
	}, 1)
	require.NoError(t, err, "drafting does not consult the pool")

	_, err = svc.Post(ctx, inv.ID, 4)
	var unavailable *docengine.SerialUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "AP999", unavailable.Serial)
	require.Empty(t, stock.applied, "no stock movement on failure")
}

func TestPostRequiresExactSerialCount(t *testing.T) {
	svc, _, stock := newTestService()
	ctx := context.Background()
	stock.available[2] = []string{"AP001", "AP002"}

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:  3,
		InvoiceDate: invDate(),
		Lines: []documents.LineRequest{
			{ProductID: 2, Quantity: 2, Serials: []string{"AP001"}},
		},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Post(ctx, inv.ID, 4)
	var mismatch *docengine.SerialCountMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 2, mismatch.Required)
	require.Equal(t, 1, mismatch.Got)
}

func TestPostedInvoiceIsFrozen(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:  3,
		InvoiceDate: invDate(),
		Lines:       []documents.LineRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Post(ctx, inv.ID, 1)
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(ctx, inv.ID, UpdateInvoiceRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Post(ctx, inv.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Cancel(ctx, inv.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState, "posted invoices reverse through credit notes")
}

func TestFetchParentRequiresPosted(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:  3,
		InvoiceDate: invDate(),
		Lines:       []documents.LineRequest{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.FetchParent(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Post(ctx, inv.ID, 1)
	require.NoError(t, err)

	parent, err := svc.FetchParent(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, parent.Number)
	require.Len(t, parent.Lines, 1)
}
