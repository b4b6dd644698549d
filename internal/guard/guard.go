// Package guard wraps protected views: it renders nothing until the session
// store resolves, redirects unauthenticated visitors, and renders the
// wrapped content only once authenticated. It is the in-tree backstop behind
// the fail-open edge gate.
package guard

import (
	"sync"

	"github.com/digitradex/trade-console/internal/session"
	"go.uber.org/zap"
)

// State is the guard's renderable state
type State string

const (
	// StateLoading shows a neutral placeholder and nothing else
	StateLoading State = "loading"
	// StateUnauthenticated triggers a redirect to login and renders nothing
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticated renders the wrapped content
	StateAuthenticated State = "authenticated"
)

// Guard is one mounted route guard. Its state leaves loading exactly once,
// driven by session store resolution, and never returns to loading without a
// new mount.
type Guard struct {
	mu       sync.Mutex
	state    State
	resolved bool

	store       *session.Store
	unsubscribe func()
	loginPath   string
	logger      *zap.Logger

	// onRedirect fires once when the guard settles unauthenticated
	onRedirect func(path string)
}

// Mount creates a guard bound to the store and begins observing it. If the
// store has already resolved, the guard settles immediately; otherwise it
// settles on the first notification that ends the loading state.
func Mount(store *session.Store, loginPath string, onRedirect func(path string), logger *zap.Logger) *Guard {
	g := &Guard{
		state:      StateLoading,
		store:      store,
		loginPath:  loginPath,
		logger:     logger,
		onRedirect: onRedirect,
	}

	g.unsubscribe = store.Subscribe(func(snap session.Snapshot) {
		g.observe(snap)
	})
	g.observe(store.Snapshot())

	return g
}

// State returns the guard's current renderable state
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Unmount stops observing the store. A remount starts over from loading.
func (g *Guard) Unmount() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Guard) observe(snap session.Snapshot) {
	g.mu.Lock()
	if g.resolved || snap.IsLoading {
		g.mu.Unlock()
		return
	}

	g.resolved = true
	var redirect bool
	if snap.IsAuthenticated {
		g.state = StateAuthenticated
	} else {
		g.state = StateUnauthenticated
		redirect = true
	}
	g.mu.Unlock()

	if redirect {
		g.logger.Debug("Route guard redirecting unauthenticated visitor",
			zap.String("login_path", g.loginPath))
		if g.onRedirect != nil {
			g.onRedirect(g.loginPath)
		}
	}
}
