package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mockprep/internal/models"
	"mockprep/internal/storage"
)

const clipContentType = "video/webm"

// ErrEmptyClip is returned for zero-length clips before any upload is attempted.
var ErrEmptyClip = fmt.Errorf("%w: empty", models.ErrUploadFailure)

// Uploader turns recorded clips into durable URLs.
type Uploader struct {
	store  storage.BlobStore
	now    func() time.Time
	logger *zap.Logger
}

func NewUploader(store storage.BlobStore, logger *zap.Logger) *Uploader {
	return &Uploader{store: store, now: time.Now, logger: logger}
}

// Upload stores clip under a path unique to this attempt and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, clip []byte, sessionID string, questionIndex int, owner string) (string, error) {
	if len(clip) == 0 {
		return "", ErrEmptyClip
	}
	if sessionID == "" || owner == "" {
		return "", fmt.Errorf("%w: session and owner are required", models.ErrUploadFailure)
	}

	path := ClipPath(owner, sessionID, questionIndex, u.now())
	if err := u.store.Put(ctx, path, bytes.NewReader(clip), clipContentType); err != nil {
		u.logger.Warn("clip upload failed",
			zap.String("session_id", sessionID),
			zap.Int("question_index", questionIndex),
			zap.Error(err))
		// best effort; the store may have left a partial object behind
		if delErr := u.store.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			u.logger.Debug("partial clip cleanup failed", zap.String("path", path), zap.Error(delErr))
		}
		return "", errors.Join(models.ErrUploadFailure, err)
	}
	return u.store.URL(path), nil
}

// ClipPath is {owner}/interview-{session}-q{index}-{unixnano}.webm.
func ClipPath(owner, sessionID string, questionIndex int, at time.Time) string {
	return fmt.Sprintf("%s/interview-%s-q%d-%d.webm", sanitize(owner), sanitize(sessionID), questionIndex, at.UnixNano())
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		}
		return r
	}, s)
}
