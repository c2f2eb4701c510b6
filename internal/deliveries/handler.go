package deliveries

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Handler exposes the /api/bons-livraison endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers delivery note routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/status/{status}", h.listByStatus)
	r.Get("/commande/{commandeId}", h.listByOrder)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list deliveries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listByStatus(w http.ResponseWriter, r *http.Request) {
	status := Status(chi.URLParam(r, "status"))
	out, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		h.fail(w, "list deliveries by status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "commandeId"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	out, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.fail(w, "list deliveries by order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get delivery", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDeliveryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	d, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create delivery", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateDeliveryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	d, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update delivery", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	d, err := h.service.UpdateStatus(r.Context(), id, req.Statut)
	if err != nil {
		h.fail(w, "update delivery status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete delivery", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Bon de livraison supprimé avec succès"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, "delivery stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
