package creditnotes

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

// StockPort is the inventory surface posting needs. The return restores
// stock and flips the named serials back to available.
type StockPort interface {
	ApplyCreditReturn(ctx context.Context, input inventory.DocumentInput) error
}

// Service coordinates the credit note workflow.
type Service struct {
	repo     Repository
	builder  *documents.Builder
	rounding RoundingSource
	stock    StockPort
	parents  docengine.ParentFetcher
}

// NewService builds Service. parents resolves posted invoices for linked
// notes.
func NewService(repo Repository, builder *documents.Builder, rounding RoundingSource, stock StockPort, parents docengine.ParentFetcher) *Service {
	return &Service{repo: repo, builder: builder, rounding: rounding, stock: stock, parents: parents}
}

// Create creates a draft credit note. On a linked note a returned quantity
// above the invoiced quantity is rejected with the line left unchanged.
func (s *Service) Create(ctx context.Context, req CreateCreditNoteRequest, createdBy int64) (*CreditNote, error) {
	linked := req.InvoiceID != nil
	pol := docengine.PolicyFor(docengine.DocCreditNote, linked)

	var lines []documents.Line
	var err error
	if linked {
		lines, err = s.builder.BuildLinkedLines(ctx, pol, s.parents, *req.InvoiceID, req.LinkedLines)
		if err != nil {
			return nil, err
		}
	} else {
		if len(req.Lines) == 0 {
			return nil, fmt.Errorf("%w: a direct credit note needs at least one line", ErrValidation)
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
	number, err := s.repo.GenerateNumber(ctx, req.NoteDate)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	cn := CreditNote{
		Number:     number,
		CustomerID: req.CustomerID,
		InvoiceID:  req.InvoiceID,
		IsDirect:   !linked,
		NoteDate:   req.NoteDate,
		Status:     CreditNoteStatusDraft,
		Reason:     req.Reason,
		Notes:      req.Notes,
		Totals:     totals,
		CreatedBy:  createdBy,
	}

	var cnID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, cn)
		if err != nil {
			return fmt.Errorf("create credit note: %w", err)
		}
		cnID = id
		for _, line := range lines {
			if _, err := repo.InsertLine(ctx, cnID, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cnID)
}

// Update replaces a draft note's header and lines. The creation-time mode is
// kept; linked notes re-propagate from their invoice.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCreditNoteRequest) (*CreditNote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != CreditNoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft credit notes can be edited", ErrInvalidState)
	}
	linked := docengine.InferLinked(&existing.IsDirect, derefInt(existing.InvoiceID))
	pol := docengine.PolicyFor(docengine.DocCreditNote, linked)

	updates := map[string]interface{}{}
	if req.NoteDate != nil {
		updates["note_date"] = *req.NoteDate
	}
	if req.Reason != nil {
		updates["reason"] = *req.Reason
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var lines []documents.Line
	replaceLines := false
	switch {
	case linked && req.LinkedLines != nil:
		lines, err = s.builder.BuildLinkedLines(ctx, pol, s.parents, *existing.InvoiceID, *req.LinkedLines)
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

// Post posts a draft note: serialized lines must name exactly the serials
// being returned, stock moves back in, and the note freezes. Serials that
// were never sold fail inside the inventory posting and nothing is written.
func (s *Service) Post(ctx context.Context, id, userID int64) (*CreditNote, error) {
	cn, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cn.Status != CreditNoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft credit notes can be posted", ErrInvalidState)
	}
	if len(cn.Lines) == 0 {
		return nil, fmt.Errorf("%w: credit note has no lines", ErrValidation)
	}
	// The receiving rules give the count and duplicate checks; the registry
	// cross-check is skipped because returned serials exist by definition.
	if err := documents.ValidateSerials(ctx, docengine.ContextReceiving, cn.Lines, nil, nil); err != nil {
		return nil, err
	}

	input := inventory.DocumentInput{
		DocType: "CREDIT_NOTE",
		DocID:   cn.ID,
		DocCode: cn.Number,
		ActorID: userID,
	}
	for _, l := range cn.Lines {
		input.Lines = append(input.Lines, stockLine(l))
	}
	if err := s.stock.ApplyCreditReturn(ctx, input); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, CreditNoteStatusPosted, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel cancels a draft note.
func (s *Service) Cancel(ctx context.Context, id, userID int64) (*CreditNote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != CreditNoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft credit notes can be cancelled", ErrInvalidState)
	}
	if err := s.repo.UpdateStatus(ctx, id, CreditNoteStatusCancelled, userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*CreditNote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCreditNotesRequest) ([]CreditNote, int, error) {
	return s.repo.List(ctx, req)
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
