package creditnotes

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type CreditNoteStatus string

const (
	CreditNoteStatusDraft     CreditNoteStatus = "DRAFT"
	CreditNoteStatusPosted    CreditNoteStatus = "POSTED"
	CreditNoteStatusCancelled CreditNoteStatus = "CANCELLED"
)

// CreditNote reverses a sale, either standalone or against a posted invoice.
// Linked notes inherit the invoice's pricing; a returned quantity above the
// invoiced quantity is rejected, never clamped. Posting returns stock and
// restores sold serials to the available pool.
type CreditNote struct {
	ID         int64            `json:"id"`
	Number     string           `json:"number"`
	CustomerID int64            `json:"customer_id"`
	InvoiceID  *int64           `json:"invoice_id,omitempty"`
	IsDirect   bool             `json:"is_direct"`
	NoteDate   time.Time        `json:"note_date"`
	Status     CreditNoteStatus `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	Notes      string           `json:"notes,omitempty"`

	documents.Totals

	CreatedBy int64      `json:"created_by"`
	PostedBy  *int64     `json:"posted_by,omitempty"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Lines []documents.Line `json:"lines,omitempty"`
}

var (
	ErrInvalidState = fmt.Errorf("creditnotes: %w", httpx.ErrInvalidState)
	ErrNotFound     = fmt.Errorf("creditnotes: %w", httpx.ErrNotFound)
	ErrValidation   = fmt.Errorf("creditnotes: %w", httpx.ErrValidation)
)
