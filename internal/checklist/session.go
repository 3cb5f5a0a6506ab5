package checklist

import "sync"

// Session is the single-slot "last result" store backing the "repeat" voice
// command. Each device (or browser session) owns exactly one Session; it is
// injected into the [Pipeline] rather than living in a package global so
// several independent devices (and tests) can run side by side.
//
// Writes are last-writer-wins. That is deliberate: requests from a single
// household user are effectively serialised, so no stronger ordering is
// needed.
type Session struct {
	mu         sync.Mutex
	transcript string
	items      []string
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{}
}

// Set records a completed inference: the transcript that produced it and the
// final item list. The items slice is copied.
func (s *Session) Set(transcript string, items []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = transcript
	s.items = append([]string(nil), items...)
}

// SetTranscript records only the transcript, leaving the item slot untouched.
// Used by the cancel command, which must not clobber the list a later
// "repeat" should echo.
func (s *Session) SetTranscript(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = transcript
}

// Transcript returns the last recorded transcript.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Items returns a copy of the last recorded item list. Never nil.
func (s *Session) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
