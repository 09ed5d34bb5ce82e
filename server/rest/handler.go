package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zzjoey/downxv/server/internal/orchestrator"
	"github.com/zzjoey/downxv/server/internal/registry"
)

type Handler struct {
	service *Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload SubmitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	err := h.service.Submit(r.Context(), payload)
	switch {
	case errors.Is(err, ErrInvalidURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, orchestrator.ErrExtractionInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, orchestrator.ErrSaveDirNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handler) CancelExtraction(w http.ResponseWriter, r *http.Request) {
	h.service.CancelExtraction()
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Tasks())
}

func (h *Handler) Task(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Task(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.service.Dismiss(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearFinished(w http.ResponseWriter, r *http.Request) {
	h.service.ClearFinished()
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	release, newer, err := h.service.CheckUpdate(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Latest    string `json:"latest"`
		URL       string `json:"url"`
		UpdateDue bool   `json:"update_available"`
	}{
		Latest:    release.TagName,
		URL:       release.HTMLURL,
		UpdateDue: newer,
	})
}

func (h *Handler) UpdateDownloader(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UpdateDownloader(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
}
