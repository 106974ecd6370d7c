package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mockprep/internal/models"
)

// State is a step of the per-question capture lifecycle.
type State int

const (
	Idle State = iota
	Starting
	Recording
	Stopping
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// MinAnswerTokens is the shortest transcript accepted as an answer.
const MinAnswerTokens = 2

var (
	ErrInvalidState = errors.New("capture: invalid state transition")
	ErrAborted      = errors.New("capture: aborted")
)

// Outcome is what a settled capture produced. Clip is nil when no media was recorded.
type Outcome struct {
	Transcript string
	Clip       []byte
	Err        error
}

// Coordinator owns both capture streams for one question and moves them through
// Idle, Starting, Recording, Stopping and Settled together.
type Coordinator struct {
	source Source
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	streams  Streams
	finals   []string
	interim  string
	chunks   [][]byte
	aborted  bool
	outcome  Outcome
	released bool
	// starting is set while a Start call is between admission and return.
	starting bool
}

func NewCoordinator(source Source, logger *zap.Logger) *Coordinator {
	return &Coordinator{source: source, logger: logger}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the settled result; it is zero until the coordinator settles.
func (c *Coordinator) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Start acquires the devices and starts both streams. A refused microphone settles
// the coordinator with models.ErrPermissionDenied without ever recording. A Start
// that is still acquiring devices blocks any other Start, even after an Abort.
func (c *Coordinator) Start(ctx context.Context, video bool) error {
	c.mu.Lock()
	if c.starting || (c.state != Idle && c.state != Settled) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidState, state)
	}
	c.reset()
	c.state = Starting
	c.starting = true
	c.mu.Unlock()
	defer c.finishStart()

	streams, err := c.source.Acquire(ctx, video)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.settle(Outcome{Err: err})
		return err
	}

	c.mu.Lock()
	c.streams = streams
	if c.aborted {
		c.releaseLocked()
		c.mu.Unlock()
		return ErrAborted
	}
	c.mu.Unlock()

	if err := streams.Speech().Start(c.onText); err != nil {
		return c.failStart(fmt.Errorf("start speech stream: %w", err))
	}
	if rec := streams.Recorder(); rec != nil {
		if err := rec.Start(c.onChunk); err != nil {
			streams.Speech().Stop()
			return c.failStart(fmt.Errorf("start media recorder: %w", err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aborted {
		// aborted while the streams were starting
		streams.Speech().Stop()
		if rec := streams.Recorder(); rec != nil {
			rec.Stop()
		}
		streams.Release()
		return ErrAborted
	}
	c.state = Recording
	return nil
}

// Stop finalizes both streams. It waits for the recorder's final flush until ctx is
// done, then keeps whatever chunks arrived. A transcript under MinAnswerTokens
// settles with models.ErrTooShort.
func (c *Coordinator) Stop(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state != Recording {
		state := c.state
		c.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: stop from %s", ErrInvalidState, state)
	}
	c.state = Stopping
	streams := c.streams
	c.mu.Unlock()

	streams.Speech().Stop()
	if rec := streams.Recorder(); rec != nil {
		select {
		case <-rec.Stop():
		case <-ctx.Done():
			c.logger.Warn("media flush did not complete; keeping partial clip", zap.Error(ctx.Err()))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aborted {
		return c.outcome, c.outcome.Err
	}

	out := Outcome{Transcript: c.transcriptLocked(), Clip: joinChunks(c.chunks)}
	if models.CountTokens(out.Transcript) < MinAnswerTokens {
		out.Err = models.ErrTooShort
	}
	c.settle(out)
	return out, out.Err
}

// Abort force-stops both streams and discards anything recorded. It is safe to call
// in any state and more than once.
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Idle, Settled:
		c.releaseLocked()
		return
	}
	c.aborted = true
	if c.streams != nil {
		c.streams.Speech().Stop()
		if rec := c.streams.Recorder(); rec != nil {
			rec.Stop()
		}
	}
	c.chunks = nil
	c.finals = nil
	c.interim = ""
	c.settle(Outcome{Err: ErrAborted})
}

func (c *Coordinator) finishStart() {
	c.mu.Lock()
	c.starting = false
	c.mu.Unlock()
}

func (c *Coordinator) failStart(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.aborted {
		c.settle(Outcome{Err: err})
	}
	return err
}

func (c *Coordinator) onText(text string, final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Starting && c.state != Recording && c.state != Stopping {
		return
	}
	text = strings.TrimSpace(text)
	if final {
		if text != "" {
			c.finals = append(c.finals, text)
		}
		c.interim = ""
		return
	}
	c.interim = text
}

func (c *Coordinator) onChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Starting && c.state != Recording && c.state != Stopping {
		return
	}
	c.chunks = append(c.chunks, append([]byte(nil), chunk...))
}

func (c *Coordinator) transcriptLocked() string {
	parts := c.finals
	if c.interim != "" {
		parts = append(append([]string(nil), parts...), c.interim)
	}
	return strings.Join(parts, " ")
}

// settle moves to Settled and releases the devices. Callers hold mu.
func (c *Coordinator) settle(out Outcome) {
	c.outcome = out
	c.state = Settled
	c.releaseLocked()
}

func (c *Coordinator) releaseLocked() {
	if c.streams != nil && !c.released {
		c.streams.Release()
		c.released = true
	}
}

func (c *Coordinator) reset() {
	c.streams = nil
	c.finals = nil
	c.interim = ""
	c.chunks = nil
	c.aborted = false
	c.released = false
	c.outcome = Outcome{}
}

func joinChunks(chunks [][]byte) []byte {
	if len(chunks) == 0 {
		return nil
	}
	return bytes.Join(chunks, nil)
}
