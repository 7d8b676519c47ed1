// Package redirect handles the return leg from the hosted payment page.
package redirect

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
)

const SessionIDParam = "session_id"

type State int

const (
	AwaitingRedirect State = iota
	IDExtracted
	MaterializationRequested
)

func (s State) String() string {
	switch s {
	case AwaitingRedirect:
		return "awaiting_redirect"
	case IDExtracted:
		return "id_extracted"
	case MaterializationRequested:
		return "materialization_requested"
	}
	return "unknown"
}

var ErrNoSessionID = errors.New("redirect: no session id in url")

// SessionID extracts the processor session id from a redirect URL.
func SessionID(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}
	id := strings.TrimSpace(u.Query().Get(SessionIDParam))
	return id, id != ""
}

// Trigger requests confirmation at most once per page load. Create one per
// load; later calls to Handle replay the first outcome.
type Trigger[T any] struct {
	confirm func(ctx context.Context, sessionID string) (T, error)

	once  sync.Once
	mu    sync.Mutex
	state State
	id    string
	res   T
	err   error
}

func NewTrigger[T any](confirm func(ctx context.Context, sessionID string) (T, error)) *Trigger[T] {
	return &Trigger[T]{confirm: confirm}
}

// Handle extracts the session id and, if present, calls confirm once.
// Without an id nothing is requested and ErrNoSessionID is returned.
func (t *Trigger[T]) Handle(ctx context.Context, u *url.URL) (T, error) {
	t.once.Do(func() {
		id, ok := SessionID(u)
		if !ok {
			t.err = ErrNoSessionID
			return
		}
		t.setState(IDExtracted, id)
		t.setState(MaterializationRequested, id)
		t.res, t.err = t.confirm(ctx, id)
	})
	return t.res, t.err
}

func (t *Trigger[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trigger[T]) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *Trigger[T]) setState(s State, id string) {
	t.mu.Lock()
	t.state, t.id = s, id
	t.mu.Unlock()
}
