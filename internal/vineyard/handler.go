package vineyard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Handler exposes the /api/parcelles and /api/recoltes endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountParcelRoutes registers parcel routes.
func (h *Handler) MountParcelRoutes(r chi.Router) {
	r.Get("/", h.listParcels)
	r.Get("/stats", h.parcelStats)
	r.Get("/{id}", h.getParcel)
	r.Post("/", h.createParcel)
	r.Put("/{id}", h.updateParcel)
	r.Delete("/{id}", h.deleteParcel)
}

// MountHarvestRoutes registers harvest routes.
func (h *Handler) MountHarvestRoutes(r chi.Router) {
	r.Get("/", h.listHarvests)
	r.Get("/stats", h.harvestStats)
	r.Get("/parcelle/{parcelleId}", h.listHarvestsByParcel)
	r.Get("/date/{date}", h.listHarvestsByDate)
	r.Get("/{id}", h.getHarvest)
	r.Post("/", h.createHarvest)
	r.Put("/{id}", h.updateHarvest)
	r.Delete("/{id}", h.deleteHarvest)
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

func (h *Handler) listParcels(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListParcels(r.Context())
	if err != nil {
		h.fail(w, "list parcels", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getParcel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	p, err := h.service.GetParcel(r.Context(), id)
	if err != nil {
		h.fail(w, "get parcel", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createParcel(w http.ResponseWriter, r *http.Request) {
	var req CreateParcelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	p, err := h.service.CreateParcel(r.Context(), req)
	if err != nil {
		h.fail(w, "create parcel", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateParcel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateParcelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	p, err := h.service.UpdateParcel(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update parcel", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteParcel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.DeleteParcel(r.Context(), id); err != nil {
		h.fail(w, "delete parcel", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Parcelle supprimée avec succès"})
}

func (h *Handler) parcelStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ParcelStats(r.Context())
	if err != nil {
		h.fail(w, "parcel stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listHarvests(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListHarvests(r.Context())
	if err != nil {
		h.fail(w, "list harvests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listHarvestsByParcel(w http.ResponseWriter, r *http.Request) {
	parcelID, err := strconv.ParseInt(chi.URLParam(r, "parcelleId"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	out, err := h.service.ListHarvestsByParcel(r.Context(), parcelID)
	if err != nil {
		h.fail(w, "list harvests by parcel", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listHarvestsByDate(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListHarvestsByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, "list harvests by date", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	harvest, err := h.service.GetHarvest(r.Context(), id)
	if err != nil {
		h.fail(w, "get harvest", err)
		return
	}
	httpx.JSON(w, http.StatusOK, harvest)
}

func (h *Handler) createHarvest(w http.ResponseWriter, r *http.Request) {
	var req CreateHarvestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	harvest, err := h.service.CreateHarvest(r.Context(), req)
	if err != nil {
		h.fail(w, "create harvest", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, harvest)
}

func (h *Handler) updateHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateHarvestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	harvest, err := h.service.UpdateHarvest(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update harvest", err)
		return
	}
	httpx.JSON(w, http.StatusOK, harvest)
}

func (h *Handler) deleteHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.DeleteHarvest(r.Context(), id); err != nil {
		h.fail(w, "delete harvest", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Récolte supprimée avec succès"})
}

func (h *Handler) harvestStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.HarvestStats(r.Context())
	if err != nil {
		h.fail(w, "harvest stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
