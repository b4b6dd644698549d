package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/models"
	"github.com/digitradex/trade-console/internal/session"
)

const loginPath = "/po/login"

func newUnresolvedStore() *session.Store {
	return session.NewStore(session.NewMemorySink(), zap.NewNop())
}

func TestGuard_LoadingUntilStoreResolves(t *testing.T) {
	store := newUnresolvedStore()

	g := Mount(store, loginPath, nil, zap.NewNop())
	defer g.Unmount()

	assert.Equal(t, StateLoading, g.State())
}

func TestGuard_SettlesAuthenticated(t *testing.T) {
	store := newUnresolvedStore()
	g := Mount(store, loginPath, func(string) {
		t.Fatal("must not redirect an authenticated session")
	}, zap.NewNop())
	defer g.Unmount()

	store.Set(&models.Credential{Token: "tok", User: &models.User{ID: 1}})
	assert.Equal(t, StateAuthenticated, g.State())
}

func TestGuard_SettlesUnauthenticatedAndRedirectsOnce(t *testing.T) {
	store := newUnresolvedStore()

	var redirects []string
	g := Mount(store, loginPath, func(path string) {
		redirects = append(redirects, path)
	}, zap.NewNop())
	defer g.Unmount()

	store.Load()
	assert.Equal(t, StateUnauthenticated, g.State())
	assert.Equal(t, []string{loginPath}, redirects)

	// Further notifications must not re-trigger the redirect
	store.Clear()
	assert.Len(t, redirects, 1)
}

func TestGuard_ResolvesExactlyOnce(t *testing.T) {
	store := newUnresolvedStore()
	g := Mount(store, loginPath, nil, zap.NewNop())
	defer g.Unmount()

	store.Set(&models.Credential{Token: "tok"})
	assert.Equal(t, StateAuthenticated, g.State())

	// A later logout does not flip a guard that already settled; the next
	// mount starts over.
	store.Clear()
	assert.Equal(t, StateAuthenticated, g.State())
}

func TestGuard_AlreadyResolvedStoreSettlesImmediately(t *testing.T) {
	store := newUnresolvedStore()
	store.Set(&models.Credential{Token: "tok"})

	g := Mount(store, loginPath, nil, zap.NewNop())
	defer g.Unmount()

	assert.Equal(t, StateAuthenticated, g.State())
}

func TestGuard_RemountStartsOver(t *testing.T) {
	store := newUnresolvedStore()
	store.Set(&models.Credential{Token: "tok"})

	first := Mount(store, loginPath, nil, zap.NewNop())
	assert.Equal(t, StateAuthenticated, first.State())
	first.Unmount()

	store.Clear()

	var redirected bool
	second := Mount(store, loginPath, func(string) { redirected = true }, zap.NewNop())
	defer second.Unmount()

	assert.Equal(t, StateUnauthenticated, second.State())
	assert.True(t, redirected)
}
