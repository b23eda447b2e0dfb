package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes read-only inventory endpoints. Stock changes only happen
// through document posting.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balances", h.listBalances)
	r.Get("/balances/{productID}", h.getBalance)
	r.Get("/movements", h.listMovements)
	r.Get("/serials", h.listSerials)
	r.Get("/serials/{serial}", h.lookupSerial)
}

func (h *Handler) listBalances(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	balances, total, err := h.service.ListBalances(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       balances,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "product id must be numeric")
		return
	}
	balance, err := h.service.Balance(r.Context(), productID)
	if err != nil {
		h.logger.Error("get balance", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := movementFilterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	movements, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": movements})
}

func (h *Handler) listSerials(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "product_id is required")
		return
	}
	status := SerialStatus(r.URL.Query().Get("status"))
	if status != "" && status != SerialAvailable && status != SerialSold {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "status must be available or sold")
		return
	}
	serials, err := h.service.ListSerials(r.Context(), productID, status)
	if err != nil {
		h.logger.Error("list serials", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": serials})
}

func (h *Handler) lookupSerial(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	sn, err := h.service.LookupSerial(r.Context(), serial)
	if err != nil {
		if errors.Is(err, ErrSerialNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "serial not registered")
			return
		}
		h.logger.Error("lookup serial", slog.String("serial", serial), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sn)
}

func movementFilterFromQuery(r *http.Request) (MovementFilter, error) {
	var filter MovementFilter
	q := r.URL.Query()
	if v := q.Get("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errInvalidParam("product_id")
		}
		filter.ProductID = id
	}
	if v := q.Get("type"); v != "" {
		filter.Type = MovementType(v)
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidParam("from")
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errInvalidParam("to")
		}
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidParam("limit")
		}
		filter.Limit = n
	}
	return filter, nil
}

func errInvalidParam(name string) error {
	return fmt.Errorf("%s is not valid", name)
}
