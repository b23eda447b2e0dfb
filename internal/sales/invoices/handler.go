package invoices

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	salesshared "github.com/meridian-erp/meridian-erp/internal/sales/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	currency  salesshared.Formatter
}

func NewHandler(logger *slog.Logger, service *Service, currency salesshared.Formatter) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), currency: currency}
}

// invoiceView decorates the invoice with a display-formatted grand total.
type invoiceView struct {
	*SaleInvoice
	TotalDisplay string `json:"total_display"`
}

func (h *Handler) view(inv *SaleInvoice) invoiceView {
	return invoiceView{SaleInvoice: inv, TotalDisplay: h.currency.Amount(inv.TotalAmount)}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/post", h.Post)
		r.Post("/{id}/cancel", h.Cancel)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("sales_order_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.SalesOrderID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := InvoiceStatus(v)
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

	invs, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invs, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	inv, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Error("create invoice failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(inv))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	inv, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update invoice failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	inv, err := h.service.Post(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("post invoice failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	inv, err := h.service.Cancel(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("cancel invoice failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
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
