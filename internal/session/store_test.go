package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/models"
)

func TestStore_StartsLoading(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())

	snap := store.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated)
}

func TestStore_LoadResolvesEmptySink(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())
	store.Load()

	snap := store.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestStore_LoadRestoresCredential(t *testing.T) {
	sink := NewMemorySink()
	err := sink.Write(&models.Credential{
		Token: "stored-token",
		User:  &models.User{ID: 7, Name: "操作者", Role: models.RoleAdmin},
	})
	assert.NoError(t, err)

	store := NewStore(sink, zap.NewNop())
	store.Load()

	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "stored-token", snap.Token)
	assert.True(t, snap.IsPrivilegedMode)
}

func TestStore_LoadFailSoftOnCorruptStorage(t *testing.T) {
	sink := NewMemorySink()
	sink.ReadErr = errors.New("disk corrupt")

	store := NewStore(sink, zap.NewNop())
	store.Load()

	// A read failure means "no session", never a stuck loading state
	snap := store.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Token)
}

func TestStore_AuthenticatedTracksToken(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())
	store.Load()

	store.Set(&models.Credential{Token: "t1", User: &models.User{ID: 1}})
	assert.True(t, store.Snapshot().IsAuthenticated)

	store.Clear()
	snap := store.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestStore_PrivilegedModeRequiresAdminRole(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())
	store.Load()

	store.Set(&models.Credential{Token: "t", User: &models.User{Role: "viewer"}})
	assert.False(t, store.Snapshot().IsPrivilegedMode)

	store.Set(&models.Credential{Token: "t", User: &models.User{Role: models.RoleAdmin}})
	assert.True(t, store.Snapshot().IsPrivilegedMode)

	// No user at all is never privileged
	store.Set(&models.Credential{Token: "t"})
	assert.False(t, store.Snapshot().IsPrivilegedMode)
}

func TestStore_SubscribersSeeEveryMutation(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())

	var seen []Snapshot
	unsubscribe := store.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap)
	})

	store.Load()
	store.Set(&models.Credential{Token: "t"})
	store.Clear()

	assert.Len(t, seen, 3)
	assert.False(t, seen[0].IsAuthenticated)
	assert.True(t, seen[1].IsAuthenticated)
	assert.False(t, seen[2].IsAuthenticated)

	unsubscribe()
	store.Set(&models.Credential{Token: "t2"})
	assert.Len(t, seen, 3, "unsubscribed listener must not fire")
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := NewStore(NewMemorySink(), zap.NewNop())
	store.Load()

	store.Clear()
	store.Clear()
	assert.False(t, store.Snapshot().IsAuthenticated)
}
