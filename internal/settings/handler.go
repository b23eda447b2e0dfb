package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/rounding", h.ShowRounding)
	r.Put("/rounding", h.UpdateRounding)
}

type roundingPayload struct {
	Method    string `json:"method"`
	Precision string `json:"precision"`
}

func (h *Handler) ShowRounding(w http.ResponseWriter, r *http.Request) {
	pol, err := h.service.RoundingPolicy(r.Context())
	if err != nil {
		h.logger.Error("read rounding policy failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, roundingPayload{
		Method:    string(pol.Method),
		Precision: pol.Precision.String(),
	})
}

func (h *Handler) UpdateRounding(w http.ResponseWriter, r *http.Request) {
	var payload roundingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid body")
		return
	}
	if err := h.service.UpdateRounding(r.Context(), payload.Method, payload.Precision); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, payload)
}
