package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mockprep/internal/capture"
	"mockprep/internal/capture/wsource"
	"mockprep/internal/middleware"
	"mockprep/internal/models"
)

// FlushTimeout is how long Stop waits for the browser's final media chunk.
const FlushTimeout = 5 * time.Second

// maxCaptureDuration bounds one recorded answer. Reaching it stops the capture the
// same way a stop frame does. Handlers read it when constructed.
var maxCaptureDuration = 10 * time.Minute

type CaptureHandler struct {
	interviews InterviewService
	pipeline   AnswerPipeline
	upgrader   websocket.Upgrader
	maxLength  time.Duration
	logger     *zap.Logger
}

// NewCaptureHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewCaptureHandler(interviews InterviewService, pipeline AnswerPipeline, allowedOrigins []string, logger *zap.Logger) *CaptureHandler {
	return &CaptureHandler{
		interviews: interviews,
		pipeline:   pipeline,
		upgrader:   websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		maxLength:  maxCaptureDuration,
		logger:     logger,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// CaptureAnswerHandler records one answer over a websocket and runs the answer pipeline
// on the settled capture. Closing the socket before stop discards the recording.
// Hitting maxCaptureDuration stops and saves what was recorded.
func (h *CaptureHandler) CaptureAnswerHandler(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r.Context())
	sessionID := chi.URLParam(r, "id")
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, h.logger, &models.ValidationError{Field: "index", Reason: "must be an integer"})
		return
	}
	session, err := h.interviews.Get(r.Context(), owner, sessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, ok := session.Question(idx); !ok {
		writeError(w, h.logger, &models.ValidationError{Field: "index", Reason: "is out of range"})
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	log := h.logger.With(zap.String("session_id", sessionID), zap.Int("question_index", idx), zap.String("owner", owner))
	conn := wsource.New(ws, log)
	coord := capture.NewCoordinator(conn, log)
	defer coord.Abort()

	ctx, cancel := context.WithTimeout(r.Context(), h.maxLength)
	defer cancel()

	video := r.URL.Query().Get("video") != "false"
	if err := coord.Start(ctx, video); err != nil {
		h.sendError(ws, conn, log, err)
		return
	}
	_ = conn.Send(wsource.Frame{Type: wsource.FrameRecording})

	select {
	case <-conn.StopRequested():
	case <-conn.Done():
		coord.Abort()
		log.Info("capture socket closed before stop; recording discarded")
		return
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			coord.Abort()
			return
		}
		log.Info("capture time limit reached; stopping", zap.Duration("limit", h.maxLength))
	}

	// the recording deadline may already have passed
	work := context.WithoutCancel(r.Context())
	flushCtx, cancelFlush := context.WithTimeout(work, FlushTimeout)
	out, err := coord.Stop(flushCtx)
	cancelFlush()
	if err != nil {
		h.sendError(ws, conn, log, err)
		return
	}

	res, err := h.pipeline.SubmitCapture(work, owner, sessionID, idx, out)
	if err != nil {
		h.sendError(ws, conn, log, err)
		return
	}
	_ = conn.Send(wsource.Frame{Type: wsource.FrameResult, Data: res})
	closeNormally(ws)
}

func (h *CaptureHandler) sendError(ws *websocket.Conn, conn *wsource.Conn, log *zap.Logger, err error) {
	status, resp := errorResponse(err)
	switch {
	case errors.Is(err, capture.ErrAborted):
		resp.Code = "aborted"
	case errors.Is(err, context.DeadlineExceeded):
		resp.Code = "timeout"
	case status >= http.StatusInternalServerError:
		log.Error("capture failed", zap.Error(err))
	}
	_ = conn.Send(wsource.Frame{Type: wsource.FrameError, Code: resp.Code, Message: resp.Message})
	closeNormally(ws)
}

func closeNormally(ws *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
