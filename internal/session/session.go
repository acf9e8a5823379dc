// Package session guards the one-schema-per-process rule: while a pipeline's
// options are registered, no second pipeline may register its own.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionActive is returned by Begin while another session is open.
var ErrSessionActive = errors.New("an argument schema is already active")

// Registry tracks the active session. The zero value is ready to use.
type Registry struct {
	mu     sync.Mutex
	active *Session
}

// Default is the process-wide registry.
var Default = &Registry{}

// Session is one pipeline's claim on the registry.
type Session struct {
	Token    uuid.UUID
	Pipeline string

	reg *Registry
}

// Begin opens a session for pipeline. It fails while another session is open.
func (r *Registry) Begin(pipeline string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, fmt.Errorf("%w: pipeline %q (session %s)", ErrSessionActive, r.active.Pipeline, r.active.Token)
	}
	s := &Session{Token: uuid.New(), Pipeline: pipeline, reg: r}
	r.active = s
	return s, nil
}

// End closes the session. Ending a session twice is a no-op.
func (s *Session) End() {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	if s.reg.active == s {
		s.reg.active = nil
	}
}
