package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	balances  map[int64]Balance
	movements []Movement
	serials   map[int64]map[string]*SerialNumber
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		balances: make(map[int64]Balance),
		serials:  make(map[int64]map[string]*SerialNumber),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) GetBalance(ctx context.Context, productID int64) (Balance, error) {
	return r.GetBalanceForUpdate(ctx, productID)
}

func (r *memoryRepo) GetBalanceForUpdate(ctx context.Context, productID int64) (Balance, error) {
	if bal, ok := r.balances[productID]; ok {
		return bal, nil
	}
	return Balance{ProductID: productID}, ErrBalanceNotFound
}

func (r *memoryRepo) ListBalances(ctx context.Context, limit, offset int) ([]Balance, int, error) {
	out := make([]Balance, 0, len(r.balances))
	for _, bal := range r.balances {
		out = append(out, bal)
	}
	return out, len(out), nil
}

func (r *memoryRepo) UpsertBalance(ctx context.Context, balance Balance) error {
	r.balances[balance.ProductID] = balance
	return nil
}

func (r *memoryRepo) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	r.nextID++
	mv.ID = r.nextID
	r.movements = append(r.movements, mv)
	return mv.ID, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	out := make([]Movement, len(r.movements))
	copy(out, r.movements)
	return out, nil
}

func (r *memoryRepo) InsertSerials(ctx context.Context, productID, docID int64, serials []string) error {
	pool := r.serials[productID]
	if pool == nil {
		pool = make(map[string]*SerialNumber)
		r.serials[productID] = pool
	}
	for _, s := range serials {
		if _, dup := pool[s]; dup {
			return ErrDuplicateSerial
		}
		r.nextID++
		pool[s] = &SerialNumber{ID: r.nextID, ProductID: productID, Serial: s, Status: SerialAvailable, ReceivedDocID: docID}
	}
	return nil
}

func (r *memoryRepo) MarkSerialsSold(ctx context.Context, productID, docID int64, serials []string) (int64, error) {
	var updated int64
	for _, s := range serials {
		if sn, ok := r.serials[productID][s]; ok && sn.Status == SerialAvailable {
			sn.Status = SerialSold
			sn.SoldDocID = &docID
			updated++
		}
	}
	return updated, nil
}

func (r *memoryRepo) MarkSerialsAvailable(ctx context.Context, productID int64, serials []string) (int64, error) {
	var updated int64
	for _, s := range serials {
		if sn, ok := r.serials[productID][s]; ok && sn.Status == SerialSold {
			sn.Status = SerialAvailable
			sn.SoldDocID = nil
			updated++
		}
	}
	return updated, nil
}

func (r *memoryRepo) ListSerials(ctx context.Context, productID int64, status SerialStatus) ([]SerialNumber, error) {
	var out []SerialNumber
	for _, sn := range r.serials[productID] {
		if status == "" || sn.Status == status {
			out = append(out, *sn)
		}
	}
	return out, nil
}

func (r *memoryRepo) LookupSerial(ctx context.Context, serial string) (*SerialNumber, error) {
	for _, pool := range r.serials {
		if sn, ok := pool[serial]; ok {
			copied := *sn
			return &copied, nil
		}
	}
	return nil, ErrSerialNotFound
}

func (r *memoryRepo) AvailableSerials(ctx context.Context, productID int64) ([]string, error) {
	var out []string
	for _, sn := range r.serials[productID] {
		if sn.Status == SerialAvailable {
			out = append(out, sn.Serial)
		}
	}
	return out, nil
}

func (r *memoryRepo) SerialExists(ctx context.Context, productID int64, serial string) (bool, error) {
	_, ok := r.serials[productID][serial]
	return ok, nil
}

func (r *memoryRepo) DuplicateSerials(ctx context.Context) ([]SerialConflict, error) {
	return nil, nil
}

func TestReceiptMovingAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	err := svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 1, DocCode: "GRN-2609-0001",
		Lines: []StockLine{{ProductID: 1, Qty: 10, UnitCost: 100}}})
	require.NoError(t, err)

	bal, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 10.0, bal.Qty, 0.0001)
	require.InDelta(t, 100.0, bal.AvgCost, 0.01)

	err = svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 2, DocCode: "GRN-2609-0002",
		Lines: []StockLine{{ProductID: 1, Qty: 5, UnitCost: 130}}})
	require.NoError(t, err)

	bal, err = svc.Balance(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 15.0, bal.Qty, 0.0001)
	require.InDelta(t, 110.0, bal.AvgCost, 0.01)
}

func TestSaleLeavesAtAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	err := svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 1, DocCode: "GRN-2609-0001",
		Lines: []StockLine{{ProductID: 1, Qty: 10, UnitCost: 100}}})
	require.NoError(t, err)

	err = svc.ApplySale(ctx, DocumentInput{DocType: "INV", DocID: 5, DocCode: "INV-2609-0005",
		Lines: []StockLine{{ProductID: 1, Qty: 4}}})
	require.NoError(t, err)

	bal, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 6.0, bal.Qty, 0.0001)
	require.InDelta(t, 100.0, bal.AvgCost, 0.01)

	last := repo.movements[len(repo.movements)-1]
	require.Equal(t, MovementSale, last.Type)
	require.InDelta(t, -4.0, last.Qty, 0.0001)
	require.InDelta(t, 100.0, last.UnitCost, 0.01)
}

func TestSaleRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	err := svc.ApplySale(ctx, DocumentInput{DocType: "INV", DocID: 1, DocCode: "INV-2609-0001",
		Lines: []StockLine{{ProductID: 1, Qty: 1}}})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestSerialLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	err := svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 1, DocCode: "GRN-2609-0001",
		Lines: []StockLine{{ProductID: 7, Qty: 2, UnitCost: 50, Serials: []string{"SN-001", "SN-002"}}}})
	require.NoError(t, err)

	pool, err := svc.AvailableSerials(ctx, 7)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"SN001", "SN002"}, pool)

	exists, err := svc.SerialExists(ctx, 7, "SN001")
	require.NoError(t, err)
	require.True(t, exists)

	err = svc.ApplySale(ctx, DocumentInput{DocType: "INV", DocID: 9, DocCode: "INV-2609-0009",
		Lines: []StockLine{{ProductID: 7, Qty: 1, Serials: []string{"SN-001"}}}})
	require.NoError(t, err)

	sn, err := svc.LookupSerial(ctx, "SN-001")
	require.NoError(t, err)
	require.Equal(t, SerialSold, sn.Status)
	require.NotNil(t, sn.SoldDocID)
	require.Equal(t, int64(9), *sn.SoldDocID)

	// selling the same serial again fails and rolls nothing forward
	err = svc.ApplySale(ctx, DocumentInput{DocType: "INV", DocID: 10, DocCode: "INV-2609-0010",
		Lines: []StockLine{{ProductID: 7, Qty: 1, Serials: []string{"SN-001"}}}})
	require.ErrorIs(t, err, ErrSerialNotAvailable)

	err = svc.ApplyCreditReturn(ctx, DocumentInput{DocType: "CN", DocID: 11, DocCode: "CN-2609-0001",
		Lines: []StockLine{{ProductID: 7, Qty: 1, UnitCost: 50, Serials: []string{"SN-001"}}}})
	require.NoError(t, err)

	pool, err = svc.AvailableSerials(ctx, 7)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"SN001", "SN002"}, pool)
}

func TestDocumentValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	ctx := context.Background()

	err := svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 1, DocCode: "GRN-2609-0001"})
	require.Error(t, err)

	err = svc.ApplyReceipt(ctx, DocumentInput{DocType: "GRN", DocID: 1, DocCode: "GRN-2609-0001",
		Lines: []StockLine{{ProductID: 1, Qty: -2, UnitCost: 10}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
