package wsource

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mockprep/internal/capture"
	"mockprep/internal/models"
)

// Frame is a JSON text frame. Binary frames carry media chunks.
type Frame struct {
	Type       string `json:"type"`
	Microphone string `json:"microphone,omitempty"`
	Camera     string `json:"camera,omitempty"`
	Text       string `json:"text,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
}

const (
	FrameStart      = "start"
	FrameTranscript = "transcript"
	FrameStop       = "stop"
	FrameFlushed    = "flushed"
	FrameFlush      = "flush"
	FrameRelease    = "release"
	FrameRecording  = "recording"
	FrameResult     = "result"
	FrameError      = "error"

	PermissionGranted = "granted"
)

// Conn adapts a browser websocket to capture.Source. The browser owns the devices;
// the socket carries its permission answer, transcript segments and media chunks.
type Conn struct {
	ws     *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	onText  func(string, bool)
	onChunk func([]byte)

	start       chan Frame
	stop        chan struct{}
	stopOnce    sync.Once
	flushed     chan struct{}
	flushedOnce sync.Once
	done        chan struct{}
}

// New starts the read loop. The caller closes ws.
func New(ws *websocket.Conn, logger *zap.Logger) *Conn {
	c := &Conn{
		ws:      ws,
		logger:  logger,
		start:   make(chan Frame, 1),
		stop:    make(chan struct{}),
		flushed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// StopRequested closes when the client sends a stop frame.
func (c *Conn) StopRequested() <-chan struct{} { return c.stop }

// Done closes when the socket stops delivering frames.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Send writes one JSON frame; safe for concurrent use.
func (c *Conn) Send(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(frame)
}

// Acquire waits for the client's start frame.
func (c *Conn) Acquire(ctx context.Context, video bool) (capture.Streams, error) {
	select {
	case f := <-c.start:
		if f.Microphone != PermissionGranted {
			return nil, models.ErrPermissionDenied
		}
		return &streams{conn: c, video: video && f.Camera == PermissionGranted}, nil
	case <-c.done:
		return nil, capture.ErrAborted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("capture socket closed", zap.Error(err))
			}
			return
		}

		if kind == websocket.BinaryMessage {
			c.mu.Lock()
			fn := c.onChunk
			c.mu.Unlock()
			if fn != nil {
				fn(data)
			}
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			_ = c.Send(Frame{Type: FrameError, Code: "bad_frame"})
			continue
		}
		switch f.Type {
		case FrameStart:
			select {
			case c.start <- f:
			default:
			}
		case FrameTranscript:
			c.mu.Lock()
			fn := c.onText
			c.mu.Unlock()
			if fn != nil {
				fn(f.Text, f.Final)
			}
		case FrameStop:
			c.stopOnce.Do(func() { close(c.stop) })
		case FrameFlushed:
			c.flushedOnce.Do(func() { close(c.flushed) })
		default:
			_ = c.Send(Frame{Type: FrameError, Code: "unknown_type"})
		}
	}
}

type streams struct {
	conn  *Conn
	video bool
	once  sync.Once
}

func (s *streams) Speech() capture.SpeechStream { return speech{s.conn} }

func (s *streams) Recorder() capture.MediaRecorder {
	if !s.video {
		return nil
	}
	return recorder{s.conn}
}

// Release detaches the callbacks and tells the browser to stop its tracks.
func (s *streams) Release() {
	s.once.Do(func() {
		s.conn.mu.Lock()
		s.conn.onText = nil
		s.conn.onChunk = nil
		s.conn.mu.Unlock()
		_ = s.conn.Send(Frame{Type: FrameRelease})
	})
}

type speech struct{ c *Conn }

func (s speech) Start(onText func(string, bool)) error {
	s.c.mu.Lock()
	s.c.onText = onText
	s.c.mu.Unlock()
	return nil
}

func (s speech) Stop() {
	s.c.mu.Lock()
	s.c.onText = nil
	s.c.mu.Unlock()
}

type recorder struct{ c *Conn }

func (r recorder) Start(onChunk func([]byte)) error {
	r.c.mu.Lock()
	r.c.onChunk = onChunk
	r.c.mu.Unlock()
	return nil
}

// Stop asks the browser to flush; chunks keep arriving until it answers flushed
// or the socket goes away.
func (r recorder) Stop() <-chan struct{} {
	_ = r.c.Send(Frame{Type: FrameFlush})
	out := make(chan struct{})
	go func() {
		select {
		case <-r.c.flushed:
		case <-r.c.done:
		}
		close(out)
	}()
	return out
}
