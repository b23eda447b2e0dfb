package creditnotes

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/credit-notes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/post", h.Post)
		r.Post("/{id}/cancel", h.Cancel)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListCreditNotesRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("invoice_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.InvoiceID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := CreditNoteStatus(v)
		req.Status = &s
	}
	req.DateFrom = parseDate(q.Get("date_from"))
	req.DateTo = parseDate(q.Get("date_to"))
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	cns, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list credit notes failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"credit_notes": cns, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cn)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCreditNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	cn, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Error("create credit note failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cn)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateCreditNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	cn, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update credit note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cn)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	cn, err := h.service.Post(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("post credit note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cn)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	cn, err := h.service.Cancel(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("cancel credit note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cn)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		fields := make(map[string]string)
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		httpx.ValidationProblem(w, fields)
		return false
	}
	return true
}

func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil
	}
	return &t
}
