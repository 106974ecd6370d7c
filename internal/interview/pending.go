package interview

import (
	"fmt"
	"sync"
	"time"
)

// Submission is one answer as captured, before feedback.
type Submission struct {
	SessionID     string
	QuestionIndex int
	Owner         string
	Transcript    string
	Clip          []byte
}

func (s Submission) key() string {
	return fmt.Sprintf("%s|%s|%d", s.Owner, s.SessionID, s.QuestionIndex)
}

// PendingStore keeps submissions whose feedback failed so the user can retry without
// re-recording. Entries expire after ttl.
type PendingStore struct {
	entries map[string]*pendingEntry
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type pendingEntry struct {
	submission Submission
	expiresAt  time.Time
}

func NewPendingStore(ttl time.Duration) *PendingStore {
	ps := &PendingStore{
		entries: make(map[string]*pendingEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go ps.cleanupLoop(5 * time.Minute)
	return ps
}

func (ps *PendingStore) Put(s Submission) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.entries[s.key()] = &pendingEntry{submission: s, expiresAt: ps.now().Add(ps.ttl)}
}

// Get returns the retained submission if it has not expired.
func (ps *PendingStore) Get(owner, sessionID string, questionIndex int) (Submission, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	entry, ok := ps.entries[Submission{Owner: owner, SessionID: sessionID, QuestionIndex: questionIndex}.key()]
	if !ok || ps.now().After(entry.expiresAt) {
		return Submission{}, false
	}
	return entry.submission, true
}

func (ps *PendingStore) Delete(owner, sessionID string, questionIndex int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.entries, Submission{Owner: owner, SessionID: sessionID, QuestionIndex: questionIndex}.key())
}

func (ps *PendingStore) Size() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.entries)
}

// Close stops the cleanup loop.
func (ps *PendingStore) Close() {
	ps.once.Do(func() { close(ps.stop) })
}

func (ps *PendingStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ps.cleanup()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PendingStore) cleanup() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := ps.now()
	for k, entry := range ps.entries {
		if now.After(entry.expiresAt) {
			delete(ps.entries, k)
		}
	}
}
