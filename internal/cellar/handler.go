package cellar

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/shared"
)

// Handler exposes the /api/bassins and /api/lots endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountVatRoutes registers vat routes.
func (h *Handler) MountVatRoutes(r chi.Router) {
	r.Get("/", h.listVats)
	r.Get("/stats", h.vatStats)
	r.Get("/{id}", h.getVat)
	r.Post("/", h.createVat)
	r.Put("/{id}", h.updateVat)
	r.Delete("/{id}", h.deleteVat)
}

// MountLotRoutes registers production lot routes, analyses included.
func (h *Handler) MountLotRoutes(r chi.Router) {
	r.Get("/", h.listLots)
	r.Get("/stats", h.lotStats)
	r.Get("/status/{status}", h.listLotsByStatus)
	r.Get("/{id}", h.getLot)
	r.Post("/", h.createLot)
	r.Put("/{id}", h.updateLot)
	r.Put("/{id}/status", h.updateLotStatus)
	r.Delete("/{id}", h.deleteLot)

	r.Get("/{id}/analyses", h.listAnalyses)
	r.Post("/{id}/analyses", h.createAnalysis)
	r.Delete("/analyses/{id}", h.deleteAnalysis)
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

func (h *Handler) listVats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListVats(r.Context())
	if err != nil {
		h.fail(w, "list vats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getVat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	v, err := h.service.GetVat(r.Context(), id)
	if err != nil {
		h.fail(w, "get vat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) createVat(w http.ResponseWriter, r *http.Request) {
	var req CreateVatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	v, err := h.service.CreateVat(r.Context(), req)
	if err != nil {
		h.fail(w, "create vat", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) updateVat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateVatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	v, err := h.service.UpdateVat(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update vat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) deleteVat(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.DeleteVat(r.Context(), id); err != nil {
		h.fail(w, "delete vat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Bassin supprimé avec succès"})
}

func (h *Handler) vatStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.VatStats(r.Context())
	if err != nil {
		h.fail(w, "vat stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listLots(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListLots(r.Context())
	if err != nil {
		h.fail(w, "list lots", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listLotsByStatus(w http.ResponseWriter, r *http.Request) {
	status := LotStatus(chi.URLParam(r, "status"))
	out, err := h.service.ListLotsByStatus(r.Context(), status)
	if err != nil {
		h.fail(w, "list lots by status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		h.fail(w, "get lot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lot)
}

func (h *Handler) createLot(w http.ResponseWriter, r *http.Request) {
	var req CreateLotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	lot, err := h.service.CreateLot(r.Context(), req)
	if err != nil {
		h.fail(w, "create lot", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lot)
}

func (h *Handler) updateLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateLotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	lot, err := h.service.UpdateLot(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update lot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lot)
}

func (h *Handler) updateLotStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req UpdateLotStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	lot, err := h.service.UpdateLotStatus(r.Context(), id, req.Statut)
	if err != nil {
		h.fail(w, "update lot status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lot)
}

func (h *Handler) deleteLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.DeleteLot(r.Context(), id); err != nil {
		h.fail(w, "delete lot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Lot de production supprimé avec succès"})
}

func (h *Handler) lotStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.LotStats(r.Context())
	if err != nil {
		h.fail(w, "lot stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	out, err := h.service.ListAnalyses(r.Context(), lotID)
	if err != nil {
		h.fail(w, "list analyses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	lotID, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	var req CreateAnalysisRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, shared.ValidationMessage(err))
		return
	}

	analysis, err := h.service.CreateAnalysis(r.Context(), lotID, req)
	if err != nil {
		h.fail(w, "create analysis", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, analysis)
}

func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.service.DeleteAnalysis(r.Context(), id); err != nil {
		h.fail(w, "delete analysis", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Analyse supprimée avec succès"})
}
