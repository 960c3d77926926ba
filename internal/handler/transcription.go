package handler

import (
	"encoding/json"
	"net/http"

	"citywatch/alertmedia/internal/pkg/httputils"
	"citywatch/alertmedia/internal/service"

	"github.com/gorilla/mux"
)

type TranscriptionHandler struct {
	transcriptions service.TranscriptionService
}

func NewTranscriptionHandler(transcriptions service.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{transcriptions: transcriptions}
}

func (h *TranscriptionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/media/{id}/transcriptions", h.addCorrection).Methods("POST", "OPTIONS")
	router.HandleFunc("/media/{id}/transcriptions", h.listTranscriptions).Methods("GET", "OPTIONS")
	router.HandleFunc("/media/{id}/transcription", h.getBestTranscription).Methods("GET", "OPTIONS")
}

type correctionRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// @Summary Correct transcription
// @Description Append a human-corrected transcription version for an audio media
// @ID add-transcription-correction
// @Accept json
// @Produce json
// @Param id path string true "Media ID"
// @Param correction body correctionRequest true "Corrected text"
// @Success 201 {object} model.Transcription
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /media/{id}/transcriptions [post]
func (h *TranscriptionHandler) addCorrection(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	var request correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	r.Body.Close()

	t, err := h.transcriptions.AddCorrection(r.Context(), mediaID, request.Text, request.Language, request.CreatedBy)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, t)
}

// @Summary Best transcription
// @Description Resolve the active transcription with the highest source rank
// @ID get-best-transcription
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} model.Transcription
// @Failure 404 {object} response.ErrorResponse
// @Router /media/{id}/transcription [get]
func (h *TranscriptionHandler) getBestTranscription(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	best, err := h.transcriptions.GetBest(r.Context(), mediaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, best)
}

// @Summary List transcription versions
// @Description Full version history of a media transcription, newest last
// @ID list-transcriptions
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} []model.Transcription
// @Router /media/{id}/transcriptions [get]
func (h *TranscriptionHandler) listTranscriptions(w http.ResponseWriter, r *http.Request) {
	mediaID := mux.Vars(r)["id"]

	list, err := h.transcriptions.List(r.Context(), mediaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, list)
}
