package procurement

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for purchase orders and goods receipts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", h.ListPOs)
		r.Post("/", h.CreatePO)
		r.Get("/{id}", h.ShowPO)
		r.Put("/{id}", h.UpdatePO)
		r.Post("/{id}/approve", h.ApprovePO)
		r.Post("/{id}/close", h.ClosePO)
		r.Post("/{id}/cancel", h.CancelPO)
	})
	r.Route("/goods-receipts", func(r chi.Router) {
		r.Get("/", h.ListGRNs)
		r.Post("/", h.CreateGRN)
		r.Get("/{id}", h.ShowGRN)
		r.Put("/{id}", h.UpdateGRN)
		r.Post("/{id}/post", h.PostGRN)
		r.Post("/{id}/cancel", h.CancelGRN)
	})
}

func (h *Handler) ListPOs(w http.ResponseWriter, r *http.Request) {
	req := ListPurchaseOrdersRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("supplier_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.SupplierID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := POStatus(v)
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

	pos, total, err := h.service.ListPOs(r.Context(), req)
	if err != nil {
		h.logger.Error("list purchase orders failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_orders": pos, "total": total})
}

func (h *Handler) ShowPO(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	po, err := h.service.GetPO(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) CreatePO(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	po, err := h.service.CreatePO(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Error("create purchase order failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) UpdatePO(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdatePurchaseOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	po, err := h.service.UpdatePO(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update purchase order failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) ApprovePO(w http.ResponseWriter, r *http.Request) {
	h.poTransition(w, r, h.service.ApprovePO)
}

func (h *Handler) ClosePO(w http.ResponseWriter, r *http.Request) {
	h.poTransition(w, r, h.service.ClosePO)
}

func (h *Handler) CancelPO(w http.ResponseWriter, r *http.Request) {
	h.poTransition(w, r, h.service.CancelPO)
}

func (h *Handler) poTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, userID int64) (*PurchaseOrder, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	po, err := fn(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("purchase order transition failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) ListGRNs(w http.ResponseWriter, r *http.Request) {
	req := ListGoodsReceiptsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("supplier_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.SupplierID = &id
		}
	}
	if v := q.Get("purchase_order_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PurchaseOrderID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := GRNStatus(v)
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

	grns, total, err := h.service.ListGRNs(r.Context(), req)
	if err != nil {
		h.logger.Error("list goods receipts failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"goods_receipts": grns, "total": total})
}

func (h *Handler) ShowGRN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	grn, err := h.service.GetGRN(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grn)
}

func (h *Handler) CreateGRN(w http.ResponseWriter, r *http.Request) {
	var req CreateGoodsReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	grn, err := h.service.CreateGRN(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Error("create goods receipt failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grn)
}

func (h *Handler) UpdateGRN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateGoodsReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	grn, err := h.service.UpdateGRN(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update goods receipt failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grn)
}

func (h *Handler) PostGRN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	grn, err := h.service.PostGRN(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("post goods receipt failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grn)
}

func (h *Handler) CancelGRN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	grn, err := h.service.CancelGRN(r.Context(), id, actor.ID)
	if err != nil {
		h.logger.Error("cancel goods receipt failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grn)
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
