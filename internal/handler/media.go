package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"citywatch/alertmedia/api/response"
	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/pkg/httputils"
	"citywatch/alertmedia/internal/service"

	"github.com/gorilla/mux"
)

// Transfer bodies are raw bytes; cap the reader a bit above the validation
// ceiling so oversized uploads fail in validation with a structured error
// instead of a connection reset.
const maxTransferBody = 6 << 20

const (
	headerUploadToken = "X-Upload-Token"
	headerChecksum    = "X-Checksum-Sha256"
)

type MediaHandler struct {
	intake service.IntakeService
}

func NewMediaHandler(intake service.IntakeService) *MediaHandler {
	return &MediaHandler{intake: intake}
}

func (h *MediaHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/alerts/{alertId}/media", h.reserveMedia).Methods("POST", "OPTIONS")
	router.HandleFunc("/alerts/{alertId}/media", h.listMedia).Methods("GET", "OPTIONS")
	router.HandleFunc("/alerts/{alertId}/media/{id}/finalize", h.finalizeMedia).Methods("POST", "OPTIONS")
	router.HandleFunc("/alerts/{alertId}/media/{id}", h.deleteMedia).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/media/{id}/content", h.transferMedia).Methods("PUT", "OPTIONS")
	router.HandleFunc("/media/degraded", h.listDegraded).Methods("GET", "OPTIONS")
}

type reserveMediaRequest struct {
	Kind        model.MediaKind        `json:"kind"`
	Position    *int                   `json:"position,omitempty"`
	Filename    string                 `json:"filename"`
	ContentType string                 `json:"content_type"`
	SizeBytes   int64                  `json:"size_bytes"`
	Checksum    string                 `json:"checksum,omitempty"`
	CapturedAt  *time.Time             `json:"captured_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// @Summary Reserve media slot
// @Description Validate intent and reserve a media upload slot on an alert
// @ID reserve-media
// @Accept json
// @Produce json
// @Param alertId path int true "Alert ID"
// @Param reservation body reserveMediaRequest true "Reservation data"
// @Success 201 {object} service.ReserveResult
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /alerts/{alertId}/media [post]
func (h *MediaHandler) reserveMedia(w http.ResponseWriter, r *http.Request) {
	alertID, ok := parseAlertID(w, r)
	if !ok {
		return
	}

	var request reserveMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	result, err := h.intake.Reserve(r.Context(), service.ReserveRequest{
		AlertID:     alertID,
		Kind:        request.Kind,
		Position:    request.Position,
		Filename:    request.Filename,
		ContentType: request.ContentType,
		SizeBytes:   request.SizeBytes,
		Checksum:    request.Checksum,
		CapturedAt:  request.CapturedAt,
		Metadata:    request.Metadata,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, result)
}

// @Summary Transfer media bytes
// @Description Upload the raw bytes for a reserved media slot
// @ID transfer-media
// @Accept octet-stream
// @Produce json
// @Param id path string true "Media ID"
// @Param X-Upload-Token header string true "Upload token from the reservation"
// @Param X-Checksum-Sha256 header string false "Hex sha256 of the body"
// @Success 200 {object} model.Media
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 410 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /media/{id}/content [put]
func (h *MediaHandler) transferMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaID := vars["id"]

	token := r.Header.Get(headerUploadToken)
	if token == "" {
		httputils.ResponseError(w, http.StatusUnauthorized, "missing upload token")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTransferBody))
	if err != nil {
		httputils.ResponseError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	r.Body.Close()

	media, err := h.intake.Transfer(r.Context(), mediaID, token, body, r.Header.Get(headerChecksum))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, media)
}

// @Summary Finalize media
// @Description Commit a transferred media as completed and queue background jobs
// @ID finalize-media
// @Produce json
// @Param alertId path int true "Alert ID"
// @Param id path string true "Media ID"
// @Success 200 {object} service.FinalizeResult
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /alerts/{alertId}/media/{id}/finalize [post]
func (h *MediaHandler) finalizeMedia(w http.ResponseWriter, r *http.Request) {
	alertID, ok := parseAlertID(w, r)
	if !ok {
		return
	}
	mediaID := mux.Vars(r)["id"]

	result, err := h.intake.Finalize(r.Context(), alertID, mediaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, result)
}

// @Summary List media
// @Description List completed media of an alert with derivatives and active transcription
// @ID list-media
// @Produce json
// @Param alertId path int true "Alert ID"
// @Success 200 {object} []service.MediaItem
// @Failure 404 {object} response.ErrorResponse
// @Router /alerts/{alertId}/media [get]
func (h *MediaHandler) listMedia(w http.ResponseWriter, r *http.Request) {
	alertID, ok := parseAlertID(w, r)
	if !ok {
		return
	}

	items, err := h.intake.List(r.Context(), alertID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, items)
}

// @Summary Delete media
// @Description Delete a media item with its derivatives, transcriptions and stored bytes
// @ID delete-media
// @Produce json
// @Param alertId path int true "Alert ID"
// @Param id path string true "Media ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /alerts/{alertId}/media/{id} [delete]
func (h *MediaHandler) deleteMedia(w http.ResponseWriter, r *http.Request) {
	alertID, ok := parseAlertID(w, r)
	if !ok {
		return
	}
	mediaID := mux.Vars(r)["id"]

	if err := h.intake.Delete(r.Context(), alertID, mediaID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary List degraded media
// @Description List completed media whose background jobs were not queued because the queue was down
// @ID list-degraded-media
// @Produce json
// @Success 200 {object} []model.Media
// @Router /media/degraded [get]
func (h *MediaHandler) listDegraded(w http.ResponseWriter, r *http.Request) {
	media, err := h.intake.ListDegraded(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, media)
}

func parseAlertID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	vars := mux.Vars(r)
	alertID, err := strconv.ParseUint(vars["alertId"], 10, 64)
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid alert id")
		return 0, false
	}
	return uint(alertID), true
}

// respondServiceError переводит таксономию ошибок сервиса в HTTP-статусы.
func respondServiceError(w http.ResponseWriter, err error) {
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]response.FieldError, 0, len(verrs))
		for _, ve := range verrs {
			fields = append(fields, response.FieldError{
				Field:   ve.Field,
				Code:    ve.Code,
				Message: ve.Message,
			})
		}
		httputils.ResponseValidationErrors(w, "validation failed", fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		httputils.ResponseError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		httputils.ResponseError(w, http.StatusUnauthorized, "invalid upload token")
	case errors.Is(err, service.ErrTokenExpired):
		httputils.ResponseError(w, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrConflict):
		httputils.ResponseError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorage):
		httputils.ResponseError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, retry the transfer")
	default:
		httputils.ResponseError(w, http.StatusInternalServerError, "internal error")
	}
}
