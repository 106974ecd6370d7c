package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mockprep/internal/middleware"
	"mockprep/internal/models"
	"mockprep/internal/utils"
)

type InterviewHandler struct {
	service InterviewService
	reports ReportSource
	logger  *zap.Logger
}

func NewInterviewHandler(service InterviewService, reports ReportSource, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{service: service, reports: reports, logger: logger}
}

func (h *InterviewHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateInterviewRequest](r)
	owner := middleware.Owner(r.Context())

	session, err := h.service.Create(r.Context(), owner, *req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, models.CreateInterviewResponse{
		ID:          session.ID,
		QuestionSet: session.QuestionSet,
	})
}

// ListHandler returns the caller's sessions, newest first.
func (h *InterviewHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context(), middleware.Owner(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.InterviewsResponse{Total: len(sessions), Items: sessions})
}

func (h *InterviewHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(r.Context(), middleware.Owner(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, session)
}

func (h *InterviewHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.Owner(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReportHandler returns the session's answers with the overall rating.
func (h *InterviewHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.Get(r.Context(), middleware.Owner(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
