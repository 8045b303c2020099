package auth

import (
	"context"
	"sync"

	"ripple/internal/store"

	"github.com/google/uuid"
)

// Session is an in-process reactive identity: it tracks the signed-in
// principal and notifies listeners on every sign-in and sign-out transition.
type Session struct {
	store store.Store

	mu        sync.RWMutex
	current   *Principal
	listeners map[int]func(*Principal)
	nextID    int
}

var _ Identity = (*Session)(nil)

// NewSession returns a signed-out session backed by st for password accounts.
func NewSession(st store.Store) *Session {
	return &Session{
		store:     st,
		listeners: make(map[int]func(*Principal)),
	}
}

// Current implements Identity.
func (s *Session) Current(context.Context) (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Principal{}, false
	}
	return *s.current, true
}

// SignInAnonymously establishes an anonymous principal with a fresh opaque UID.
func (s *Session) SignInAnonymously(context.Context) (Principal, error) {
	p := Principal{UID: uuid.NewString(), Anonymous: true}
	s.setCurrent(&p)
	return p, nil
}

// SignUp creates a password account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password string) (Principal, error) {
	p, err := CreateAccount(ctx, s.store, email, password)
	if err != nil {
		return Principal{}, err
	}
	s.setCurrent(&p)
	return p, nil
}

// SignInWithPassword signs in an existing password account.
func (s *Session) SignInWithPassword(ctx context.Context, email, password string) (Principal, error) {
	p, err := VerifyPassword(ctx, s.store, email, password)
	if err != nil {
		return Principal{}, err
	}
	s.setCurrent(&p)
	return p, nil
}

// SignOut clears the current principal.
func (s *Session) SignOut() {
	s.setCurrent(nil)
}

// OnChange registers fn to run on every sign-in/sign-out transition, with the
// new principal or nil. It fires immediately with the current state, matching
// the auth-state listener the UI layer expects. The returned cancel func
// removes the listener.
func (s *Session) OnChange(fn func(*Principal)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) setCurrent(p *Principal) {
	s.mu.Lock()
	s.current = p
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
