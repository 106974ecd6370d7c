package capture

import "context"

// Source grants access to capture hardware for one question.
type Source interface {
	// Acquire blocks until microphone access is granted or refused. A refused
	// microphone yields models.ErrPermissionDenied. Camera access is optional.
	Acquire(ctx context.Context, video bool) (Streams, error)
}

// Streams are the device handles acquired for one recording.
type Streams interface {
	Speech() SpeechStream
	// Recorder returns nil when no camera is available.
	Recorder() MediaRecorder
	// Release frees the devices. It must be safe to call more than once.
	Release()
}

// SpeechStream delivers interim and final transcript segments.
type SpeechStream interface {
	Start(onText func(text string, final bool)) error
	// Stop is idempotent.
	Stop()
}

// MediaRecorder delivers encoded media chunks at a fixed interval.
type MediaRecorder interface {
	Start(onChunk func(chunk []byte)) error
	// Stop asks the recorder to finalize. The returned channel closes after the final chunk was
	// delivered. Stop may be called more than once.
	Stop() <-chan struct{}
}
