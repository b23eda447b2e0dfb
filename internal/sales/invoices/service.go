package invoices

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

// StockPort is the inventory surface invoicing needs: the available serial
// pool while drafting and the outbound stock movement at posting.
type StockPort interface {
	ApplySale(ctx context.Context, input inventory.DocumentInput) error
	AvailableSerials(ctx context.Context, productID int64) ([]string, error)
}

// Service coordinates the sale invoice workflow.
type Service struct {
	repo     Repository
	builder  *documents.Builder
	rounding RoundingSource
	stock    StockPort
	parents  docengine.ParentFetcher
}

// NewService builds Service. parents resolves confirmed sales orders for
// linked invoices.
func NewService(repo Repository, builder *documents.Builder, rounding RoundingSource, stock StockPort, parents docengine.ParentFetcher) *Service {
	return &Service{repo: repo, builder: builder, rounding: rounding, stock: stock, parents: parents}
}

// Create creates a draft invoice. Serial selection is free while drafting;
// the exact-count check against the available pool runs at posting.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*SaleInvoice, error) {
	linked := req.SalesOrderID != nil
	pol := docengine.PolicyFor(docengine.DocSaleInvoice, linked)

	var lines []documents.Line
	var err error
	if linked {
		lines, err = s.builder.BuildLinkedLines(ctx, pol, s.parents, *req.SalesOrderID, req.LinkedLines)
		if err != nil {
			return nil, err
		}
	} else {
		if len(req.Lines) == 0 {
			return nil, fmt.Errorf("%w: a direct invoice needs at least one line", ErrValidation)
		}
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, req.Lines)
		if err != nil {
			return nil, err
		}
	}

	totals, err := s.computeTotals(ctx, lines)
	if err != nil {
		return nil, err
	}
	number, err := s.repo.GenerateNumber(ctx, req.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	inv := SaleInvoice{
		Number:      number,
		CustomerID:  req.CustomerID,
		SOID:        req.SalesOrderID,
		IsDirect:    !linked,
		InvoiceDate: req.InvoiceDate,
		Status:      InvoiceStatusDraft,
		Notes:       req.Notes,
		Totals:      totals,
		CreatedBy:   createdBy,
	}

	var invID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invID = id
		for _, line := range lines {
			if _, err := repo.InsertLine(ctx, invID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invID)
}

// Update replaces a draft invoice's header and lines. The creation-time mode
// is kept; linked invoices re-propagate from their sales order.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*SaleInvoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be edited", ErrInvalidState)
	}
	linked := docengine.InferLinked(&existing.IsDirect, derefInt(existing.SOID))
	pol := docengine.PolicyFor(docengine.DocSaleInvoice, linked)

	updates := map[string]interface{}{}
	if req.InvoiceDate != nil {
		updates["invoice_date"] = *req.InvoiceDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []documents.Line
	replaceLines := false
	switch {
	case linked && req.LinkedLines != nil:
		lines, err = s.builder.BuildLinkedLines(ctx, pol, s.parents, *existing.SOID, *req.LinkedLines)
		replaceLines = true
	case !linked && req.Lines != nil:
		lines, err = s.builder.BuildLines(ctx, pol, docengine.CeilingClamp, *req.Lines)
		replaceLines = true
	}
	if err != nil {
		return nil, err
	}
	if replaceLines {
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
		if replaceLines {
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

// Post posts a draft invoice: serialized lines must name exactly the required
// number of serials, each drawn from the product's available pool. Stock
// moves out and the invoice freezes. Nothing is written when any line fails.
func (s *Service) Post(ctx context.Context, id, userID int64) (*SaleInvoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be posted", ErrInvalidState)
	}
	if len(inv.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice has no lines", ErrValidation)
	}
	if err := documents.ValidateSerials(ctx, docengine.ContextSelling, inv.Lines, s.stock, nil); err != nil {
		return nil, err
	}

	input := inventory.DocumentInput{
		DocType: "INVOICE",
		DocID:   inv.ID,
		DocCode: inv.Number,
		ActorID: userID,
	}
	for _, l := range inv.Lines {
		input.Lines = append(input.Lines, stockLine(l))
	}
	if err := s.stock.ApplySale(ctx, input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, InvoiceStatusPosted, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel cancels a draft invoice. Posted invoices stay frozen; reversals go
// through a credit note.
func (s *Service) Cancel(ctx context.Context, id, userID int64) (*SaleInvoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != InvoiceStatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be cancelled", ErrInvalidState)
	}
	if err := s.repo.UpdateStatus(ctx, id, InvoiceStatusCancelled, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*SaleInvoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]SaleInvoice, int, error) {
	return s.repo.List(ctx, req)
}

// FetchParent exposes posted invoices to credit note propagation.
func (s *Service) FetchParent(ctx context.Context, parentID int64) (docengine.ParentDocument, error) {
	inv, err := s.repo.Get(ctx, parentID)
	if err != nil {
		return docengine.ParentDocument{}, err
	}
	if inv.Status != InvoiceStatusPosted {
		return docengine.ParentDocument{}, fmt.Errorf("%w: invoice must be posted before crediting", ErrInvalidState)
	}
	parent := docengine.ParentDocument{ID: inv.ID, Number: inv.Number}
	for _, l := range inv.Lines {
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

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
