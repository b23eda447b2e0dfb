package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock movements and the serial registry. Document
// posting flows through ApplyReceipt, ApplySale and ApplyCreditReturn; each
// runs in one transaction so the balance, the movement rows and the serial
// state commit together.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	allowNeg    bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort, idem *shared.IdempotencyStore, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, allowNeg: cfg.AllowNegativeStock}
}

// ApplyReceipt records inbound stock for a posted goods receipt and registers
// its serials as available.
func (s *Service) ApplyReceipt(ctx context.Context, input DocumentInput) error {
	if err := validateDocument(input, false); err != nil {
		return err
	}
	return s.applyDocument(ctx, input, func(ctx context.Context, tx Repository) error {
		now := time.Now().UTC()
		for _, line := range input.Lines {
			if line.UnitCost < 0 {
				return ErrInvalidUnitCost
			}
			if err := s.move(ctx, tx, input, line.ProductID, line.Qty, line.UnitCost, MovementReceipt, now); err != nil {
				return err
			}
			if len(line.Serials) > 0 {
				if err := tx.InsertSerials(ctx, line.ProductID, input.DocID, normalizeAll(line.Serials)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ApplySale records outbound stock for a posted invoice and marks its serials
// sold. Serials that are missing or no longer available abort the whole
// posting.
func (s *Service) ApplySale(ctx context.Context, input DocumentInput) error {
	if err := validateDocument(input, false); err != nil {
		return err
	}
	return s.applyDocument(ctx, input, func(ctx context.Context, tx Repository) error {
		now := time.Now().UTC()
		for _, line := range input.Lines {
			if err := s.move(ctx, tx, input, line.ProductID, -line.Qty, 0, MovementSale, now); err != nil {
				return err
			}
			if len(line.Serials) > 0 {
				serials := normalizeAll(line.Serials)
				updated, err := tx.MarkSerialsSold(ctx, line.ProductID, input.DocID, serials)
				if err != nil {
					return err
				}
				if updated != int64(len(serials)) {
					return ErrSerialNotAvailable
				}
			}
		}
		return nil
	})
}

// ApplyCreditReturn records returned stock for a posted credit note and puts
// its serials back in the available pool.
func (s *Service) ApplyCreditReturn(ctx context.Context, input DocumentInput) error {
	if err := validateDocument(input, false); err != nil {
		return err
	}
	return s.applyDocument(ctx, input, func(ctx context.Context, tx Repository) error {
		now := time.Now().UTC()
		for _, line := range input.Lines {
			if err := s.move(ctx, tx, input, line.ProductID, line.Qty, line.UnitCost, MovementReturn, now); err != nil {
				return err
			}
			if len(line.Serials) > 0 {
				serials := normalizeAll(line.Serials)
				updated, err := tx.MarkSerialsAvailable(ctx, line.ProductID, serials)
				if err != nil {
					return err
				}
				if updated != int64(len(serials)) {
					return ErrSerialNotFound
				}
			}
		}
		return nil
	})
}

// move applies one balance change with moving-average cost. Inbound quantities
// carry their own cost; outbound quantities always leave at the current
// average.
func (s *Service) move(ctx context.Context, tx Repository, input DocumentInput, productID int64, qtyChange, unitCost float64, mvType MovementType, now time.Time) error {
	if qtyChange == 0 {
		return ErrInvalidQuantity
	}
	balance, err := tx.GetBalanceForUpdate(ctx, productID)
	if err != nil && !errors.Is(err, ErrBalanceNotFound) {
		return err
	}
	newQty := balance.Qty + qtyChange
	if !s.allowNeg && newQty < -0.0001 {
		return ErrNegativeStock
	}
	var newAvg float64
	if qtyChange > 0 {
		totalCost := balance.Qty*balance.AvgCost + qtyChange*unitCost
		if newQty != 0 {
			newAvg = totalCost / newQty
		}
	} else {
		unitCost = balance.AvgCost
		if math.Abs(newQty) < 0.0001 {
			newQty = 0
		}
		if newQty <= 0 {
			newAvg = 0
		} else {
			newAvg = balance.AvgCost
		}
	}
	mv := Movement{
		Code:       fmt.Sprintf("%s-%d", input.DocCode, productID),
		Type:       mvType,
		ProductID:  productID,
		Qty:        qtyChange,
		UnitCost:   unitCost,
		RefDocType: input.DocType,
		RefDocID:   input.DocID,
		PostedAt:   now,
		CreatedBy:  input.ActorID,
	}
	if _, err := tx.InsertMovement(ctx, mv); err != nil {
		return err
	}
	balance.ProductID = productID
	balance.Qty = newQty
	balance.AvgCost = newAvg
	return tx.UpsertBalance(ctx, balance)
}

func (s *Service) applyDocument(ctx context.Context, input DocumentInput, fn func(context.Context, Repository) error) error {
	key := fmt.Sprintf("%s:%d:%s", input.DocType, input.DocID, input.DocCode)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return err
		}
		insertedKey = true
	}
	if err := s.repo.WithTx(ctx, fn); err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("inventory:%s", input.DocType),
			Entity:   "stock_movements",
			EntityID: fmt.Sprintf("%s:%d", input.DocType, input.DocID),
			Meta: map[string]any{
				"doc_code": input.DocCode,
				"lines":    len(input.Lines),
			},
		})
	}
	return nil
}

// Balance returns the current balance for a product. Products never moved
// report a zero balance.
func (s *Service) Balance(ctx context.Context, productID int64) (Balance, error) {
	bal, err := s.repo.GetBalance(ctx, productID)
	if errors.Is(err, ErrBalanceNotFound) {
		return Balance{ProductID: productID}, nil
	}
	return bal, err
}

// ListBalances pages through all product balances.
func (s *Service) ListBalances(ctx context.Context, limit, offset int) ([]Balance, int, error) {
	return s.repo.ListBalances(ctx, limit, offset)
}

// Movements lists posted movements for a filter.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// ListSerials lists registered serials for a product, optionally by status.
func (s *Service) ListSerials(ctx context.Context, productID int64, status SerialStatus) ([]SerialNumber, error) {
	return s.repo.ListSerials(ctx, productID, status)
}

// LookupSerial finds a serial across all products.
func (s *Service) LookupSerial(ctx context.Context, serial string) (*SerialNumber, error) {
	return s.repo.LookupSerial(ctx, docengine.NormalizeSerial(serial))
}

// AvailableSerials returns the sellable pool for a product.
func (s *Service) AvailableSerials(ctx context.Context, productID int64) ([]string, error) {
	return s.repo.AvailableSerials(ctx, productID)
}

// SerialExists reports whether a serial is already registered for a product.
// Satisfies docengine.SerialRegistry.
func (s *Service) SerialExists(ctx context.Context, productID int64, serial string) (bool, error) {
	return s.repo.SerialExists(ctx, productID, serial)
}

// CheckSerialIntegrity reports serials registered more than once. Run
// periodically by the worker.
func (s *Service) CheckSerialIntegrity(ctx context.Context) ([]SerialConflict, error) {
	return s.repo.DuplicateSerials(ctx)
}

func validateDocument(input DocumentInput, allowEmpty bool) error {
	if input.DocType == "" || input.DocID == 0 {
		return errors.New("inventory: document reference required")
	}
	if !allowEmpty && len(input.Lines) == 0 {
		return errors.New("inventory: document has no stock lines")
	}
	for _, line := range input.Lines {
		if line.ProductID == 0 {
			return errors.New("inventory: product required on every line")
		}
		if line.Qty <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func normalizeAll(serials []string) []string {
	out := make([]string, 0, len(serials))
	for _, s := range serials {
		out = append(out, docengine.NormalizeSerial(s))
	}
	return out
}

var _ docengine.SerialRegistry = (*Service)(nil)
