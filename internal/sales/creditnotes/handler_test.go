package creditnotes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

func newTestRouter() (chi.Router, *Service) {
	svc, _, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r, svc
}

func doRequest(t *testing.T, r chi.Router, method, path, body string) (int, httpx.ProblemDetail) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var pd httpx.ProblemDetail
	_ = json.NewDecoder(rec.Body).Decode(&pd)
	return rec.Code, pd
}

func postedNote(t *testing.T, svc *Service) *CreditNote {
	t.Helper()
	invID := int64(90)
	qty := 2
	cn, err := svc.Create(context.Background(), CreateCreditNoteRequest{
		CustomerID: 3,
		InvoiceID:  &invID,
		NoteDate:   noteDate(),
		LinkedLines: []documents.LinkedLineRequest{
			{ParentLineID: 11, Quantity: &qty, Serials: []string{"AP001", "AP002"}},
		},
	}, 1)
	require.NoError(t, err)
	posted, err := svc.Post(context.Background(), cn.ID, 1)
	require.NoError(t, err)
	return posted
}

func TestShowUnknownNoteReturns404(t *testing.T) {
	r, _ := newTestRouter()

	status, pd := doRequest(t, r, http.MethodGet, "/credit-notes/999", "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Not Found", pd.Title)
	require.NotEmpty(t, pd.Detail)
}

func TestPostPostedNoteReturns409(t *testing.T) {
	r, svc := newTestRouter()
	cn := postedNote(t, svc)

	status, pd := doRequest(t, r, http.MethodPost, "/credit-notes/"+strconv.FormatInt(cn.ID, 10)+"/post", "")
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "Invalid State", pd.Title)
	require.Contains(t, pd.Detail, "only draft credit notes can be posted")
}

func TestUpdatePostedNoteReturns409(t *testing.T) {
	r, svc := newTestRouter()
	cn := postedNote(t, svc)

	status, pd := doRequest(t, r, http.MethodPut, "/credit-notes/"+strconv.FormatInt(cn.ID, 10), `{"reason":"late"}`)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "Invalid State", pd.Title)
}

func TestCreateDirectNoteWithoutLinesReturns400(t *testing.T) {
	r, _ := newTestRouter()

	body := `{"customer_id":3,"note_date":"2026-05-20T00:00:00Z","reason":"goodwill"}`
	status, pd := doRequest(t, r, http.MethodPost, "/credit-notes", body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Validation Failed", pd.Title)
}

func TestCreateOverReturnReturns422(t *testing.T) {
	r, _ := newTestRouter()

	body := `{"customer_id":3,"invoice_id":90,"note_date":"2026-05-20T00:00:00Z","linked_lines":[{"parent_line_id":11,"quantity":5}]}`
	status, pd := doRequest(t, r, http.MethodPost, "/credit-notes", body)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "Document Rule Violation", pd.Title)
}
