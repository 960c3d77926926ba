package handler

import (
	"encoding/json"
	"net/http"

	"citywatch/alertmedia/internal/model"
	"citywatch/alertmedia/internal/pkg/httputils"
	"citywatch/alertmedia/internal/service"

	"github.com/gorilla/mux"
)

// WorkerHandler принимает коллбеки фоновых воркеров. Эти маршруты живут под
// /internal и не должны быть доступны снаружи периметра.
type WorkerHandler struct {
	derivatives    service.DerivativeService
	transcriptions service.TranscriptionService
}

func NewWorkerHandler(derivatives service.DerivativeService, transcriptions service.TranscriptionService) *WorkerHandler {
	return &WorkerHandler{
		derivatives:    derivatives,
		transcriptions: transcriptions,
	}
}

func (h *WorkerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/internal/media/{id}/derivatives", h.recordDerivative).Methods("POST", "OPTIONS")
	router.HandleFunc("/internal/media/{id}/transcriptions", h.recordTranscription).Methods("POST", "OPTIONS")
	router.HandleFunc("/media/{id}/derivatives", h.listDerivatives).Methods("GET", "OPTIONS")
}

type recordDerivativeRequest struct {
	Type        model.DerivativeType `json:"type"`
	StorageKey  string               `json:"storage_key"`
	Bucket      string               `json:"bucket,omitempty"`
	ContentType string               `json:"content_type,omitempty"`
	SizeBytes   int64                `json:"size_bytes,omitempty"`
	Width       *int                 `json:"width,omitempty"`
	Height      *int                 `json:"height,omitempty"`
}

// @Summary Record derivative
// @Description Worker callback registering a produced artifact (thumbnail, preview, waveform)
// @ID record-derivative
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param derivative body recordDerivativeRequest true "Artifact data"
// @Success 201 {object} model.Derivative
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /internal/media/{id}/derivatives [post]
func (h *WorkerHandler) recordDerivative(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	var request recordDerivativeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	derivative, err := h.derivatives.Record(r.Context(), service.RecordDerivativeRequest{
		MediaID:     mediaID,
		Type:        request.Type,
		StorageKey:  request.StorageKey,
		Bucket:      request.Bucket,
		ContentType: request.ContentType,
		SizeBytes:   request.SizeBytes,
		Width:       request.Width,
		Height:      request.Height,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, derivative)
}

type workerTranscriptionRequest struct {
	Text     string                    `json:"text"`
	Language string                    `json:"language,omitempty"`
	Source   model.TranscriptionSource `json:"source"`
}

// @Summary Record transcription
// @Description Worker callback appending an automatic or manual transcription version
// @ID record-transcription
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param transcription body workerTranscriptionRequest true "Transcription data"
// @Success 201 {object} model.Transcription
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /internal/media/{id}/transcriptions [post]
func (h *WorkerHandler) recordTranscription(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	var request workerTranscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	// Коррекции идут через публичный маршрут, воркеры присылают auto или manual.
	if request.Source == model.SourceHumanCorrected {
		httputils.ResponseError(w, http.StatusBadRequest, "human corrections go through /media/{id}/transcriptions")
		return
	}

	t, err := h.transcriptions.Append(r.Context(), mediaID, request.Text, request.Language, "worker", request.Source)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, t)
}

// @Summary List derivatives
// @Description List artifacts recorded for a media item
// @ID list-derivatives
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} []model.Derivative
// @Router /media/{id}/derivatives [get]
func (h *WorkerHandler) listDerivatives(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	list, err := h.derivatives.List(r.Context(), mediaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, list)
}
