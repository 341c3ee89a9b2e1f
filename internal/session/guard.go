package session

import (
	"context"

	"github.com/rs/zerolog"
)

// LandingRoute is the public route unauthorized visitors are sent to.
const LandingRoute = "/"

// Redirector performs the client-side redirect on access denial.
type Redirector interface {
	Redirect(route string)
}

// RedirectorFunc adapts a function to the Redirector interface.
type RedirectorFunc func(route string)

// Redirect calls f.
func (f RedirectorFunc) Redirect(route string) { f(route) }

// Guard gates access to a view based on the session store's roles.
type Guard struct {
	store    *Store
	redirect Redirector
	log      zerolog.Logger
}

// NewGuard creates a guard over the given store.
func NewGuard(store *Store, redirect Redirector, logger zerolog.Logger) *Guard {
	return &Guard{
		store:    store,
		redirect: redirect,
		log:      logger.With().Str("component", "guard").Logger(),
	}
}

// Require grants access iff the session's roles intersect allowedRoles. The
// store is initialized first if it is not already, so no access decision is
// ever made against an unchecked session. On denial the visitor is
// redirected to the public landing route and Require returns false.
func (g *Guard) Require(ctx context.Context, allowedRoles ...string) bool {
	if !g.store.Initialized() {
		g.store.Initialize(ctx)
	}

	for _, role := range allowedRoles {
		if g.store.HasRole(role) {
			return true
		}
	}

	g.log.Debug().Strs("allowed", allowedRoles).Msg("access denied, redirecting")
	g.redirect.Redirect(LandingRoute)
	return false
}
