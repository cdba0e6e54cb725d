package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jaam8/poll_profiles/internal/auth"
	"github.com/jaam8/poll_profiles/internal/models"
	"github.com/jaam8/poll_profiles/internal/repository"
	"github.com/jaam8/poll_profiles/internal/session"
	"github.com/jaam8/poll_profiles/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errCommit = errors.New("commit rejected")

// failingStore reads through to the wrapped store but rejects every batch.
type failingStore struct {
	store.Store
}

func (failingStore) Batch() store.Batch {
	return store.NewBatch(func(context.Context, []store.Op) error { return errCommit })
}

// freeNamesStore reports every username as free, as a concurrent writer
// would see it right before another writer reserves the name.
type freeNamesStore struct {
	store.Store
}

func (s freeNamesStore) Get(ctx context.Context, collection, id string, dst interface{}) error {
	if collection == models.UsernamesCollection {
		return store.ErrNotFound
	}
	return s.Store.Get(ctx, collection, id, dst)
}

type recordingNotifier struct {
	follows []string
	polls   []string
}

func (n *recordingNotifier) Followed(_ context.Context, follower, following string) {
	n.follows = append(n.follows, follower+"->"+following)
}

func (n *recordingNotifier) PollCreated(_ context.Context, owner, pollID string) {
	n.polls = append(n.polls, owner+":"+pollID)
}

func newProfileService(t *testing.T, db store.Store) *ProfileService {
	t.Helper()
	l := zaptest.NewLogger(t)
	return NewProfileService(repository.New(db, l), nil, l, ProfileOptions{
		HandleAttempts: 5,
		DefaultImage:   "default.png",
	})
}

func newAuthService(t *testing.T) (*AuthService, *auth.FakeProvider, *store.MemoryStore) {
	t.Helper()
	db := store.NewMemoryStore()
	provider := auth.NewFakeProvider()
	profiles := newProfileService(t, db)
	return NewAuthService(provider, profiles, session.NewMemoryStore(0), zaptest.NewLogger(t)), provider, db
}

func mustCreate(t *testing.T, s *ProfileService, uid string) *models.Profile {
	t.Helper()
	p, err := s.CreateProfile(context.Background(), models.Identity{UID: uid, Email: uid + "@x.com"})
	require.NoError(t, err)
	return p
}

func mustLoad(t *testing.T, s *ProfileService, uid string) *models.Profile {
	t.Helper()
	p, err := s.LoadProfile(context.Background(), uid)
	require.NoError(t, err)
	return p
}
