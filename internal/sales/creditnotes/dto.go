package creditnotes

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
)

// CreateCreditNoteRequest creates a credit note. Exactly one of Lines
// (direct) or InvoiceID+LinkedLines (linked) applies; the mode is fixed at
// creation.
type CreateCreditNoteRequest struct {
	CustomerID  int64                         `json:"customer_id" validate:"required,gt=0"`
	InvoiceID   *int64                        `json:"invoice_id,omitempty"`
	NoteDate    time.Time                     `json:"note_date" validate:"required"`
	Reason      string                        `json:"reason,omitempty" validate:"max=250"`
	Notes       string                        `json:"notes,omitempty"`
	Lines       []documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,dive"`
	LinkedLines []documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type UpdateCreditNoteRequest struct {
	NoteDate    *time.Time                     `json:"note_date,omitempty"`
	Reason      *string                        `json:"reason,omitempty" validate:"omitempty,max=250"`
	Notes       *string                        `json:"notes,omitempty"`
	Lines       *[]documents.LineRequest       `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	LinkedLines *[]documents.LinkedLineRequest `json:"linked_lines,omitempty" validate:"omitempty,dive"`
}

type ListCreditNotesRequest struct {
	CustomerID *int64            `json:"customer_id,omitempty"`
	InvoiceID  *int64            `json:"invoice_id,omitempty"`
	Status     *CreditNoteStatus `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"date_from,omitempty"`
	DateTo     *time.Time        `json:"date_to,omitempty"`
	Limit      int               `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int               `json:"offset" validate:"gte=0"`
}
