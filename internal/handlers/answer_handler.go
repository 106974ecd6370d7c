package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mockprep/internal/interview"
	"mockprep/internal/middleware"
	"mockprep/internal/models"
	"mockprep/internal/utils"
)

const (
	// MaxClipBytes bounds one uploaded answer clip.
	MaxClipBytes = 100 << 20
	multipartMem = 8 << 20
)

type AnswerHandler struct {
	pipeline AnswerPipeline
	logger   *zap.Logger
}

func NewAnswerHandler(pipeline AnswerPipeline, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{pipeline: pipeline, logger: logger}
}

// SubmitHandler accepts a multipart form with questionIndex, transcript and an optional
// clip file, and runs the answer pipeline on it.
func (h *AnswerHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxClipBytes+multipartMem)
	if err := r.ParseMultipartForm(multipartMem); err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_form",
			Message: "Invalid multipart form",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	idx, err := strconv.Atoi(r.FormValue("questionIndex"))
	if err != nil {
		writeError(w, h.logger, &models.ValidationError{Field: "questionIndex", Reason: "must be an integer"})
		return
	}

	var clip []byte
	file, _, err := r.FormFile("clip")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(w, h.logger, &models.ValidationError{Field: "clip", Reason: "could not be read"})
		return
	default:
		clip, err = io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, h.logger, &models.ValidationError{Field: "clip", Reason: "could not be read"})
			return
		}
	}

	res, err := h.pipeline.Submit(r.Context(), interview.Submission{
		SessionID:     chi.URLParam(r, "id"),
		QuestionIndex: idx,
		Owner:         middleware.Owner(r.Context()),
		Transcript:    r.FormValue("transcript"),
		Clip:          clip,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}

// RetryHandler resubmits an answer whose feedback request failed earlier.
func (h *AnswerHandler) RetryHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, h.logger, &models.ValidationError{Field: "index", Reason: "must be an integer"})
		return
	}
	res, err := h.pipeline.Retry(r.Context(), middleware.Owner(r.Context()), chi.URLParam(r, "id"), idx)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}
