package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/log"
	"github.com/nvander/strum/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToggler struct {
	result []string
	err    error
	authed bool
	calls  int

	// observed set at the moment the remote call ran
	observed func() []string
	snapshot []string
}

func (f *fakeToggler) GetFavorites(ctx context.Context) ([]string, error) {
	return f.result, f.err
}

func (f *fakeToggler) ToggleFavorite(ctx context.Context, songID string) ([]string, error) {
	f.calls++
	if f.observed != nil {
		f.snapshot = f.observed()
	}
	return f.result, f.err
}

func (f *fakeToggler) IsAuthenticated() bool { return f.authed }

func memStore(t *testing.T) domain.Store {
	t.Helper()
	s, err := store.NewSessionStore("", "")
	require.NoError(t, err)
	return s
}

func TestToggleOptimisticThenServerTruth(t *testing.T) {
	client := &fakeToggler{authed: true, result: []string{"s1", "s9"}}
	svc := NewService(client, memStore(t), log.NullLogger())
	client.observed = svc.IDs

	require.NoError(t, svc.Toggle(context.Background(), "s1"))

	// The set was already mutated when the network call went out.
	assert.Equal(t, []string{"s1"}, client.snapshot)
	// And the server's set replaced it afterwards, not merged.
	assert.Equal(t, []string{"s1", "s9"}, svc.IDs())
}

func TestToggleRollbackOnFailure(t *testing.T) {
	client := &fakeToggler{authed: true, result: []string{"s1", "s2"}}
	svc := NewService(client, memStore(t), log.NullLogger())
	svc.Replace([]string{"s1", "s2"})

	client.err = errors.New("network down")
	err := svc.Toggle(context.Background(), "s2")
	assert.Error(t, err)
	assert.Equal(t, []string{"s1", "s2"}, svc.IDs(), "exact pre-toggle contents restored")
}

func TestToggleRemovesExisting(t *testing.T) {
	client := &fakeToggler{authed: true, result: []string{"s1"}}
	svc := NewService(client, memStore(t), log.NullLogger())
	svc.Replace([]string{"s1", "s2"})
	client.observed = svc.IDs

	require.NoError(t, svc.Toggle(context.Background(), "s2"))
	assert.Equal(t, []string{"s1"}, client.snapshot, "optimistic removal")
	assert.Equal(t, []string{"s1"}, svc.IDs())
}

func TestToggleRequiresAuth(t *testing.T) {
	client := &fakeToggler{authed: false}
	svc := NewService(client, memStore(t), log.NullLogger())

	err := svc.Toggle(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Zero(t, client.calls, "no network call without a session")
	assert.Empty(t, svc.IDs(), "no mutation without a session")
}

func TestToggleSessionExpiredForcesLogout(t *testing.T) {
	client := &fakeToggler{authed: true, err: domain.ErrSessionExpired}
	svc := NewService(client, memStore(t), log.NullLogger())
	svc.Replace([]string{"s1"})

	var loggedOut bool
	svc.OnSessionExpired(func() { loggedOut = true })

	err := svc.Toggle(context.Background(), "s2")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.True(t, loggedOut)
	assert.Equal(t, []string{"s1"}, svc.IDs(), "rolled back before logout")
}

func TestSeededFromStore(t *testing.T) {
	st := memStore(t)
	require.NoError(t, st.SaveFavorites([]string{"s7"}))

	svc := NewService(&fakeToggler{authed: true}, st, log.NullLogger())
	assert.True(t, svc.Contains("s7"))
}
