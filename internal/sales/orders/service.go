package orders

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/documents"
)

// RoundingSource yields the configured document rounding policy.
type RoundingSource interface {
	RoundingPolicy(ctx context.Context) (docengine.RoundingPolicy, error)
}

// Service coordinates the sales order workflow.
type Service struct {
	repo     Repository
	builder  *documents.Builder
	rounding RoundingSource
}

// NewService builds Service.
func NewService(repo Repository, builder *documents.Builder, rounding RoundingSource) *Service {
	return &Service{repo: repo, builder: builder, rounding: rounding}
}

// Create creates a draft sales order. Unit prices above the product MRP are
// clamped down to the ceiling rather than rejected.
func (s *Service) Create(ctx context.Context, req CreateSalesOrderRequest, createdBy int64) (*SalesOrder, error) {
	pol := docengine.PolicyFor(docengine.DocSalesOrder, false)
	lines, err := s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, req.Lines)
	if err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(ctx, lines)
	if err != nil {
		return nil, err
	}
	number, err := s.repo.GenerateNumber(ctx, req.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	so := SalesOrder{
		Number:       number,
		CustomerID:   req.CustomerID,
		OrderDate:    req.OrderDate,
		DeliveryDate: req.DeliveryDate,
		Status:       SalesOrderStatusDraft,
		Notes:        req.Notes,
		Totals:       totals,
		CreatedBy:    createdBy,
	}

	var soID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, so)
		if err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		soID = id
		for _, line := range lines {
			if _, err := repo.InsertLine(ctx, soID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, soID)
}

// Update replaces a draft order's header fields and lines.
func (s *Service) Update(ctx context.Context, id int64, req UpdateSalesOrderRequest) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != SalesOrderStatusDraft {
		return nil, fmt.Errorf("%w: only draft orders can be edited", ErrInvalidState)
	}

	updates := map[string]interface{}{}
	if req.OrderDate != nil {
		updates["order_date"] = *req.OrderDate
	}
	if req.DeliveryDate != nil {
		updates["delivery_date"] = *req.DeliveryDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []documents.Line
	if req.Lines != nil {
		pol := docengine.PolicyFor(docengine.DocSalesOrder, false)
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, *req.Lines)
		if err != nil {
			return nil, err
		}
		totals, err := s.computeTotals(ctx, lines)
		if err != nil {
			return nil, err
		}
		updates["subtotal"] = totals.Subtotal
		updates["discount_amount"] = totals.DiscountAmount
		updates["tax_amount"] = totals.TaxAmount
		updates["rounding_adjustment"] = totals.RoundingAdjustment
		updates["total_amount"] = totals.TotalAmount
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Lines != nil {
			if err := repo.DeleteLines(ctx, id); err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := repo.InsertLine(ctx, id, line); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Confirm moves a draft order to confirmed, making it invoiceable.
func (s *Service) Confirm(ctx context.Context, id, userID int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != SalesOrderStatusDraft {
		return nil, fmt.Errorf("%w: only draft orders can be confirmed", ErrInvalidState)
	}
	if len(existing.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no lines", ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, id, SalesOrderStatusConfirmed, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Complete closes a confirmed order once it has been fully invoiced.
func (s *Service) Complete(ctx context.Context, id, userID int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != SalesOrderStatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed orders can be completed", ErrInvalidState)
	}
	if err := s.repo.UpdateStatus(ctx, id, SalesOrderStatusCompleted, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel cancels a non-terminal order.
func (s *Service) Cancel(ctx context.Context, id, userID int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == SalesOrderStatusCompleted || existing.Status == SalesOrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is already final", ErrInvalidState)
	}
	if err := s.repo.UpdateStatus(ctx, id, SalesOrderStatusCancelled, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, req)
}

// FetchParent exposes confirmed orders to invoice propagation.
func (s *Service) FetchParent(ctx context.Context, parentID int64) (docengine.ParentDocument, error) {
	so, err := s.repo.Get(ctx, parentID)
	if err != nil {
		return docengine.ParentDocument{}, err
	}
	if so.Status != SalesOrderStatusConfirmed {
		return docengine.ParentDocument{}, fmt.Errorf("%w: sales order must be confirmed before invoicing", ErrInvalidState)
	}
	parent := docengine.ParentDocument{ID: so.ID, Number: so.Number}
	for _, l := range so.Lines {
		parent.Lines = append(parent.Lines, l.ParentLine())
	}
	return parent, nil
}

func (s *Service) computeTotals(ctx context.Context, lines []documents.Line) (documents.Totals, error) {
	policy, err := s.rounding.RoundingPolicy(ctx)
	if err != nil {
		return documents.Totals{}, fmt.Errorf("load rounding policy: %w", err)
	}
	return documents.ComputeTotals(lines, policy), nil
}
