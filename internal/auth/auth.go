// Package auth exposes the current authenticated principal and the sign-in
// flows that establish one. The rest of the application only ever asks "who
// is acting right now" through the Identity interface; absence of an answer
// makes every identity-scoped operation a silent no-op.
package auth

import "context"

// Principal is the authenticated actor performing an operation.
type Principal struct {
	UID       string
	Email     string
	Anonymous bool
}

// Identity reports the currently authenticated principal, if any.
type Identity interface {
	Current(ctx context.Context) (Principal, bool)
}

type ctxKey struct{}

// WithPrincipal returns a context carrying p. The HTTP middleware uses this
// to hand each request its own identity.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom extracts the principal injected by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// ContextIdentity resolves the principal from the request context.
type ContextIdentity struct{}

// Current implements Identity.
func (ContextIdentity) Current(ctx context.Context) (Principal, bool) {
	return PrincipalFrom(ctx)
}

// Static is a fixed identity, present or absent. Useful for tools and tests.
type Static struct {
	p *Principal
}

// NewStatic returns an identity that always answers with p; pass nil for an
// identity that is never present.
func NewStatic(p *Principal) Static {
	return Static{p: p}
}

// Current implements Identity.
func (s Static) Current(context.Context) (Principal, bool) {
	if s.p == nil {
		return Principal{}, false
	}
	return *s.p, true
}
