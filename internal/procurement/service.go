package procurement

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

// RoundingSource yields the configured document rounding policy.
type RoundingSource interface {
	RoundingPolicy(ctx context.Context) (docengine.RoundingPolicy, error)
}

// StockPort is the inventory surface posting needs.
type StockPort interface {
	ApplyReceipt(ctx context.Context, input inventory.DocumentInput) error
	SerialExists(ctx context.Context, productID int64, serial string) (bool, error)
}

// Service coordinates purchase orders and goods receipts.
type Service struct {
	repo     Repository
	builder  *documents.Builder
	rounding RoundingSource
	stock    StockPort
}

// NewService builds Service.
func NewService(repo Repository, builder *documents.Builder, rounding RoundingSource, stock StockPort) *Service {
	return &Service{repo: repo, builder: builder, rounding: rounding, stock: stock}
}

// CreatePO creates a draft purchase order. Purchase orders are planning
// documents: no serials, purchase-direction prices, discount set through the
// configure flow.
func (s *Service) CreatePO(ctx context.Context, req CreatePurchaseOrderRequest, createdBy int64) (*PurchaseOrder, error) {
	pol := docengine.PolicyFor(docengine.DocPurchaseOrder, false)
	lines, err := s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, req.Lines)
	if err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(ctx, lines)
	if err != nil {
		return nil, err
	}
	number, err := s.repo.GeneratePONumber(ctx, req.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	po := PurchaseOrder{
		Number:       number,
		SupplierID:   req.SupplierID,
		OrderDate:    req.OrderDate,
		ExpectedDate: req.ExpectedDate,
		Status:       POStatusDraft,
		Notes:        req.Notes,
		Totals:       totals,
		CreatedBy:    createdBy,
	}

	var poID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreatePO(ctx, po)
		if err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		poID = id
		for _, line := range lines {
			if _, err := repo.InsertPOLine(ctx, poID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPO(ctx, poID)
}

// UpdatePO replaces a draft purchase order's header fields and lines.
func (s *Service) UpdatePO(ctx context.Context, id int64, req UpdatePurchaseOrderRequest) (*PurchaseOrder, error) {
	existing, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != POStatusDraft {
		return nil, fmt.Errorf("%w: only draft purchase orders can be edited", ErrInvalidState)
	}

	updates := map[string]interface{}{}
	if req.OrderDate != nil {
		updates["order_date"] = *req.OrderDate
	}
	if req.ExpectedDate != nil {
		updates["expected_date"] = *req.ExpectedDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []documents.Line
	if req.Lines != nil {
		pol := docengine.PolicyFor(docengine.DocPurchaseOrder, false)
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, *req.Lines)
		if err != nil {
			return nil, err
		}
		totals, err := s.computeTotals(ctx, lines)
		if err != nil {
			return nil, err
		}
		applyTotals(updates, totals)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.UpdatePO(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Lines != nil {
			if err := repo.DeletePOLines(ctx, id); err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := repo.InsertPOLine(ctx, id, line); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPO(ctx, id)
}

// ApprovePO moves a draft order to approved, making it linkable by receipts.
func (s *Service) ApprovePO(ctx context.Context, id, userID int64) (*PurchaseOrder, error) {
	existing, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != POStatusDraft {
		return nil, fmt.Errorf("%w: only draft purchase orders can be approved", ErrInvalidState)
	}
	if err := s.repo.UpdatePOStatus(ctx, id, POStatusApproved, userID); err != nil {
		return nil, err
	}
	return s.repo.GetPO(ctx, id)
}

// ClosePO closes an approved order.
func (s *Service) ClosePO(ctx context.Context, id, userID int64) (*PurchaseOrder, error) {
	existing, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != POStatusApproved {
		return nil, fmt.Errorf("%w: only approved purchase orders can be closed", ErrInvalidState)
	}
	if err := s.repo.UpdatePOStatus(ctx, id, POStatusClosed, userID); err != nil {
		return nil, err
	}
	return s.repo.GetPO(ctx, id)
}

// CancelPO cancels a non-terminal order.
func (s *Service) CancelPO(ctx context.Context, id, userID int64) (*PurchaseOrder, error) {
	existing, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == POStatusClosed || existing.Status == POStatusCancelled {
		return nil, fmt.Errorf("%w: purchase order is already final", ErrInvalidState)
	}
	if err := s.repo.UpdatePOStatus(ctx, id, POStatusCancelled, userID); err != nil {
		return nil, err
	}
	return s.repo.GetPO(ctx, id)
}

func (s *Service) GetPO(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.GetPO(ctx, id)
}

func (s *Service) ListPOs(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, int, error) {
	return s.repo.ListPOs(ctx, req)
}

// poFetcher adapts the repository into the engine's parent-fetch port.
type poFetcher struct {
	repo Repository
}

func (f poFetcher) FetchParent(ctx context.Context, parentID int64) (docengine.ParentDocument, error) {
	po, err := f.repo.GetPO(ctx, parentID)
	if err != nil {
		return docengine.ParentDocument{}, err
	}
	parent := docengine.ParentDocument{ID: po.ID, Number: po.Number}
	for _, l := range po.Lines {
		parent.Lines = append(parent.Lines, l.ParentLine())
	}
	return parent, nil
}

// CreateGRN creates a draft goods receipt. The mode is fixed at creation:
// direct receipts take manual lines, linked receipts propagate the approved
// purchase order's lines with quantity clamped to ordered and discount
// inherited read-only.
func (s *Service) CreateGRN(ctx context.Context, req CreateGoodsReceiptRequest, createdBy int64) (*GoodsReceipt, error) {
	linked := req.PurchaseOrderID != nil
	pol := docengine.PolicyFor(docengine.DocGoodsReceipt, linked)

	var lines []documents.Line
	var err error
	if linked {
		po, err := s.repo.GetPO(ctx, *req.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		if po.Status != POStatusApproved {
			return nil, fmt.Errorf("%w: purchase order must be approved before receiving", ErrInvalidState)
		}
		lines, err = s.builder.BuildLinkedLines(ctx, pol, poFetcher{repo: s.repo}, po.ID, req.LinkedLines)
		if err != nil {
			return nil, err
		}
	} else {
		if len(req.Lines) == 0 {
			return nil, fmt.Errorf("%w: a direct receipt needs at least one line", ErrValidation)
		}
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, req.Lines)
		if err != nil {
			return nil, err
		}
	}

	if err := documents.ValidateSerials(ctx, docengine.ContextReceiving, lines, nil, s.stock); err != nil {
		return nil, err
	}
	totals, err := s.computeTotals(ctx, lines)
	if err != nil {
		return nil, err
	}
	number, err := s.repo.GenerateGRNNumber(ctx, req.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	grn := GoodsReceipt{
		Number:     number,
		SupplierID: req.SupplierID,
		POID:       req.PurchaseOrderID,
		IsDirect:   !linked,
		ReceivedAt: req.ReceivedAt,
		Status:     GRNStatusDraft,
		Notes:      req.Notes,
		Totals:     totals,
		CreatedBy:  createdBy,
	}

	var grnID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreateGRN(ctx, grn)
		if err != nil {
			return fmt.Errorf("create goods receipt: %w", err)
		}
		grnID = id
		for _, line := range lines {
			if _, err := repo.InsertGRNLine(ctx, grnID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetGRN(ctx, grnID)
}

// UpdateGRN replaces a draft receipt's header and lines. The creation-time
// mode is kept; linked receipts re-propagate from their purchase order.
func (s *Service) UpdateGRN(ctx context.Context, id int64, req UpdateGoodsReceiptRequest) (*GoodsReceipt, error) {
	existing, err := s.repo.GetGRN(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != GRNStatusDraft {
		return nil, fmt.Errorf("%w: only draft receipts can be edited", ErrInvalidState)
	}
	linked := docengine.InferLinked(&existing.IsDirect, derefInt(existing.POID))
	pol := docengine.PolicyFor(docengine.DocGoodsReceipt, linked)

	updates := map[string]interface{}{}
	if req.ReceivedAt != nil {
		updates["received_at"] = *req.ReceivedAt
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []documents.Line
	replaceLines := false
	switch {
	case linked && req.LinkedLines != nil:
		lines, err = s.builder.BuildLinkedLines(ctx, pol, poFetcher{repo: s.repo}, *existing.POID, *req.LinkedLines)
		replaceLines = true
	case !linked && req.Lines != nil:
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, *req.Lines)
		replaceLines = true
	}
	if err != nil {
		return nil, err
	}
	if replaceLines {
		if err := documents.ValidateSerials(ctx, docengine.ContextReceiving, lines, nil, s.stock); err != nil {
			return nil, err
		}
		totals, err := s.computeTotals(ctx, lines)
		if err != nil {
			return nil, err
		}
		applyTotals(updates, totals)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.UpdateGRN(ctx, id, updates); err != nil {
				return err
			}
		}
		if replaceLines {
			if err := repo.DeleteGRNLines(ctx, id); err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := repo.InsertGRNLine(ctx, id, line); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetGRN(ctx, id)
}

// PostGRN posts a draft receipt: serials are re-checked against the registry,
// stock moves in, and the receipt freezes. Nothing is written when any line
// fails.
func (s *Service) PostGRN(ctx context.Context, id, userID int64) (*GoodsReceipt, error) {
	grn, err := s.repo.GetGRN(ctx, id)
	if err != nil {
		return nil, err
	}
	if grn.Status != GRNStatusDraft {
		return nil, fmt.Errorf("%w: only draft receipts can be posted", ErrInvalidState)
	}
	if len(grn.Lines) == 0 {
		return nil, fmt.Errorf("%w: receipt has no lines", ErrValidation)
	}
	if err := documents.ValidateSerials(ctx, docengine.ContextReceiving, grn.Lines, nil, s.stock); err != nil {
		return nil, err
	}

	input := inventory.DocumentInput{
		DocType: "GRN",
		DocID:   grn.ID,
		DocCode: grn.Number,
		ActorID: userID,
	}
	for _, l := range grn.Lines {
		input.Lines = append(input.Lines, stockLine(l))
	}
	if err := s.stock.ApplyReceipt(ctx, input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGRNStatus(ctx, id, GRNStatusPosted, userID); err != nil {
		return nil, err
	}
	return s.repo.GetGRN(ctx, id)
}

// CancelGRN cancels a draft receipt. Posted receipts stay frozen.
func (s *Service) CancelGRN(ctx context.Context, id, userID int64) (*GoodsReceipt, error) {
	existing, err := s.repo.GetGRN(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != GRNStatusDraft {
		return nil, fmt.Errorf("%w: only draft receipts can be cancelled", ErrInvalidState)
	}
	if err := s.repo.UpdateGRNStatus(ctx, id, GRNStatusCancelled, userID); err != nil {
		return nil, err
	}
	return s.repo.GetGRN(ctx, id)
}

func (s *Service) GetGRN(ctx context.Context, id int64) (*GoodsReceipt, error) {
	return s.repo.GetGRN(ctx, id)
}

func (s *Service) ListGRNs(ctx context.Context, req ListGoodsReceiptsRequest) ([]GoodsReceipt, int, error) {
	return s.repo.ListGRNs(ctx, req)
}

func (s *Service) computeTotals(ctx context.Context, lines []documents.Line) (documents.Totals, error) {
	policy, err := s.rounding.RoundingPolicy(ctx)
	if err != nil {
		return documents.Totals{}, fmt.Errorf("load rounding policy: %w", err)
	}
	return documents.ComputeTotals(lines, policy), nil
}

// stockLine converts a document line into base-unit stock movement terms.
func stockLine(l documents.Line) inventory.StockLine {
	multiplier := l.UnitMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return inventory.StockLine{
		ProductID: l.ProductID,
		Qty:       float64(l.Quantity) * multiplier,
		UnitCost:  l.UnitPrice / multiplier,
		Serials:   l.Serials,
	}
}

func applyTotals(updates map[string]interface{}, t documents.Totals) {
	updates["subtotal"] = t.Subtotal
	updates["discount_amount"] = t.DiscountAmount
	updates["tax_amount"] = t.TaxAmount
	updates["rounding_adjustment"] = t.RoundingAdjustment
	updates["total_amount"] = t.TotalAmount
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
