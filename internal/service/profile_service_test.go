package service

import (
	"context"
	"testing"

	"github.com/jaam8/poll_profiles/internal/models"
	"github.com/jaam8/poll_profiles/internal/repository"
	"github.com/jaam8/poll_profiles/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreateProfileDefaults(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	s := newProfileService(t, db)

	p, err := s.CreateProfile(ctx, models.Identity{UID: "u1", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Regexp(t, handlePattern, p.Name)
	assert.Equal(t, "default.png", p.Image)
	assert.False(t, p.CreatedAt.IsZero())
	for _, l := range [][]string{p.Polls, p.YesVotes, p.NoVotes, p.Followers, p.Following} {
		assert.NotNil(t, l)
		assert.Empty(t, l)
	}

	var res models.UsernameReservation
	require.NoError(t, db.Get(ctx, models.UsernamesCollection, p.Name, &res))
	assert.Equal(t, "u1", res.UID)

	loaded := mustLoad(t, s, "u1")
	assert.Equal(t, p.Name, loaded.Name)
}

func TestCreateProfileKeepsIdentityImage(t *testing.T) {
	s := newProfileService(t, store.NewMemoryStore())
	p, err := s.CreateProfile(context.Background(), models.Identity{UID: "u1", Email: "a@x.com", Image: "photo.png"})
	require.NoError(t, err)
	assert.Equal(t, "photo.png", p.Image)
}

func TestCreateProfileRaceOnHandle(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	s := newProfileService(t, freeNamesStore{db})
	s.handles.intn = func(int) int { return 0 }

	first, err := s.CreateProfile(ctx, models.Identity{UID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	// the pre-check sees the name as free but the reservation write loses
	_, err = s.CreateProfile(ctx, models.Identity{UID: "u2", Email: "a@x.com"})
	require.ErrorIs(t, err, models.ErrCreateConflict)
	assert.Equal(t, "CreateConflict", models.Kind(err))

	var p models.Profile
	assert.ErrorIs(t, db.Get(ctx, models.UsersCollection, "u2", &p), store.ErrNotFound)
	var res models.UsernameReservation
	require.NoError(t, db.Get(ctx, models.UsernamesCollection, first.Name, &res))
	assert.Equal(t, "u1", res.UID)
}

func TestCreateProfileHandlesExhausted(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	l := zaptest.NewLogger(t)
	s := NewProfileService(repository.New(db, l), nil, l, ProfileOptions{HandleAttempts: 1})
	s.handles.intn = func(int) int { return 0 }

	mustCreate(t, s, "u1")
	_, err := s.CreateProfile(ctx, models.Identity{UID: "u1", Email: "u1@x.com"})
	require.ErrorIs(t, err, models.ErrCreateConflict)
	require.ErrorIs(t, err, models.ErrHandleExhausted)
}

func TestLoadProfileNotFound(t *testing.T) {
	s := newProfileService(t, store.NewMemoryStore())
	_, err := s.LoadProfile(context.Background(), "nobody")
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.LookupProfile(context.Background(), "nobody")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProfileRename(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	s := newProfileService(t, db)
	p := mustCreate(t, s, "u1")
	generated := p.Name

	bob, err := s.UpdateProfile(ctx, p, models.ProfileEdits{Name: "bob", Bio: "", Image: "b.png"})
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Name)

	alice, err := s.UpdateProfile(ctx, bob, models.ProfileEdits{Name: "alice", Bio: "hi", Image: "img.png"})
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, "hi", alice.Bio)
	assert.Equal(t, "img.png", alice.Image)
	assert.Equal(t, "bob", bob.Name, "input snapshot must not change")

	var res models.UsernameReservation
	for _, old := range []string{generated, "bob"} {
		assert.ErrorIs(t, db.Get(ctx, models.UsernamesCollection, old, &res), store.ErrNotFound)
	}
	require.NoError(t, db.Get(ctx, models.UsernamesCollection, "alice", &res))
	assert.Equal(t, "u1", res.UID)

	found, err := s.LookupProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hi", found.Bio)
}

func TestUpdateProfileSameNameKeepsReservation(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	s := newProfileService(t, db)
	p := mustCreate(t, s, "u1")

	next, err := s.UpdateProfile(ctx, p, models.ProfileEdits{Name: p.Name, Bio: "new bio"})
	require.NoError(t, err)
	assert.Equal(t, "new bio", mustLoad(t, s, "u1").Bio)

	var res models.UsernameReservation
	require.NoError(t, db.Get(ctx, models.UsernamesCollection, next.Name, &res))
}

func TestUpdateProfileRejected(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	p1 := mustCreate(t, s, "u1")
	p2 := mustCreate(t, s, "u2")

	_, err := s.UpdateProfile(ctx, p2, models.ProfileEdits{Name: p1.Name})
	require.ErrorIs(t, err, models.ErrUpdateConflict)
	require.ErrorIs(t, err, models.ErrHandleTaken)
	assert.Equal(t, p2.Name, mustLoad(t, s, "u2").Name)

	_, err = s.UpdateProfile(ctx, p2, models.ProfileEdits{Name: "  "})
	require.ErrorIs(t, err, models.ErrUpdateConflict)
	require.ErrorIs(t, err, models.ErrInvalidHandle)
}

func TestUpdateProfileFromStaleSnapshotKeepsLists(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "a")
	stale := mustCreate(t, s, "b")

	_, err := s.Follow(ctx, "a", "b")
	require.NoError(t, err)
	_, err = s.RecordVote(ctx, mustLoad(t, s, "b"), "p1", models.ChoiceYes)
	require.NoError(t, err)

	next, err := s.UpdateProfile(ctx, stale, models.ProfileEdits{Name: stale.Name, Bio: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", next.Bio)
	assert.Equal(t, []string{"a"}, next.Followers)

	a, b := mustLoad(t, s, "a"), mustLoad(t, s, "b")
	assert.Equal(t, "hi", b.Bio)
	assert.Equal(t, a.IsFollowing("b"), b.IsFollowedBy("a"))
	assert.True(t, b.IsFollowedBy("a"))
	assert.Equal(t, []string{"p1"}, b.YesVotes)
}

func TestUpdateProfileCommitFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	s := newProfileService(t, db)
	bob, err := s.UpdateProfile(ctx, mustCreate(t, s, "u1"), models.ProfileEdits{Name: "bob"})
	require.NoError(t, err)

	failing := newProfileService(t, failingStore{db})
	_, err = failing.UpdateProfile(ctx, bob, models.ProfileEdits{Name: "alice", Bio: "hi", Image: "img.png"})
	require.ErrorIs(t, err, models.ErrUpdateConflict)
	require.ErrorIs(t, err, errCommit)
	assert.Equal(t, "unable to update profile", models.Reason(err))

	stored := mustLoad(t, s, "u1")
	assert.Equal(t, "bob", stored.Name)
	assert.Empty(t, stored.Bio)

	var res models.UsernameReservation
	require.NoError(t, db.Get(ctx, models.UsernamesCollection, "bob", &res))
	assert.ErrorIs(t, db.Get(ctx, models.UsernamesCollection, "alice", &res), store.ErrNotFound)
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "a")
	mustCreate(t, s, "b")
	beforeA, beforeB := mustLoad(t, s, "a"), mustLoad(t, s, "b")

	uid, err := s.Follow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", uid)
	assert.True(t, mustLoad(t, s, "a").IsFollowing("b"))
	assert.True(t, mustLoad(t, s, "b").IsFollowedBy("a"))

	uid, err = s.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", uid)
	afterA, afterB := mustLoad(t, s, "a"), mustLoad(t, s, "b")
	assert.Equal(t, beforeA.Following, afterA.Following)
	assert.Equal(t, beforeA.Followers, afterA.Followers)
	assert.Equal(t, beforeB.Following, afterB.Following)
	assert.Equal(t, beforeB.Followers, afterB.Followers)
}

func TestFollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "a")
	mustCreate(t, s, "b")

	_, err := s.Follow(ctx, "a", "b")
	require.NoError(t, err)
	onceA, onceB := mustLoad(t, s, "a"), mustLoad(t, s, "b")
	_, err = s.Follow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, onceA.Following, mustLoad(t, s, "a").Following)
	assert.Equal(t, onceB.Followers, mustLoad(t, s, "b").Followers)

	// unfollowing twice is a no-op as well
	_, err = s.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	_, err = s.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, mustLoad(t, s, "a").Following)
}

func TestFollowSymmetry(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	uids := []string{"a", "b", "c"}
	for _, uid := range uids {
		mustCreate(t, s, uid)
	}

	steps := []struct {
		follow   bool
		from, to string
	}{
		{true, "a", "b"}, {true, "b", "a"}, {true, "c", "a"}, {false, "a", "b"},
		{true, "a", "c"}, {false, "c", "a"}, {true, "b", "c"}, {true, "a", "b"},
		{false, "b", "a"}, {false, "b", "a"}, {true, "c", "b"},
	}
	for _, st := range steps {
		var err error
		if st.follow {
			_, err = s.Follow(ctx, st.from, st.to)
		} else {
			_, err = s.Unfollow(ctx, st.from, st.to)
		}
		require.NoError(t, err)

		for _, x := range uids {
			px := mustLoad(t, s, x)
			for _, y := range uids {
				py := mustLoad(t, s, y)
				assert.Equal(t, px.IsFollowing(y), py.IsFollowedBy(x), "%s -> %s", x, y)
			}
		}
	}
}

func TestFollowMissingProfileLeavesNoHalfEdge(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "a")

	_, err := s.Follow(ctx, "a", "ghost")
	require.ErrorIs(t, err, models.ErrFollowConflict)
	assert.Empty(t, mustLoad(t, s, "a").Following)

	_, err = s.Unfollow(ctx, "ghost", "a")
	require.ErrorIs(t, err, models.ErrUnfollowConflict)
	assert.Equal(t, "UnfollowConflict", models.Kind(err))
}

func TestFollowNotifies(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	l := zaptest.NewLogger(t)
	n := &recordingNotifier{}
	s := NewProfileService(repository.New(db, l), n, l, ProfileOptions{HandleAttempts: 5})
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")

	_, err := s.Follow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{a.Name + "->" + b.Name}, n.follows)

	_, err = s.AddOwnedPoll(ctx, a, "poll1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.Name + ":poll1"}, n.polls)
}

func TestFollowersWindow(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "star")
	for _, uid := range []string{"f1", "f2", "f3"} {
		mustCreate(t, s, uid)
		_, err := s.Follow(ctx, uid, "star")
		require.NoError(t, err)
	}

	star := mustLoad(t, s, "star")
	assert.Equal(t, []string{"f2"}, s.Followers(star, 1, 1))
	assert.Equal(t, []string{"f1", "f2", "f3"}, s.Followers(star, 0, 0))
	assert.Empty(t, s.Followers(star, 10, 5))
	assert.Equal(t, []string{"f2", "f3"}, s.Followers(star, -1, 0)[1:])
	assert.Equal(t, []string{"star"}, s.Following(mustLoad(t, s, "f1"), 0, 10))
}

func TestOwnedPollRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	p := mustCreate(t, s, "u1")
	_, err := s.AddOwnedPoll(ctx, p, "poll0")
	require.NoError(t, err)
	before := append([]string{}, mustLoad(t, s, "u1").Polls...)

	id, err := s.AddOwnedPoll(ctx, p, "poll1")
	require.NoError(t, err)
	assert.Equal(t, "poll1", id)
	assert.Equal(t, []string{"poll0", "poll1"}, p.Polls)
	assert.Equal(t, p.Polls, mustLoad(t, s, "u1").Polls)

	id, err = s.RemoveOwnedPoll(ctx, p, "poll1")
	require.NoError(t, err)
	assert.Equal(t, "poll1", id)
	assert.Equal(t, before, p.Polls)
	assert.Equal(t, before, mustLoad(t, s, "u1").Polls)
}

func TestOwnedPollKeepsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	mustCreate(t, s, "u1")
	stale1, stale2 := mustLoad(t, s, "u1"), mustLoad(t, s, "u1")

	_, err := s.AddOwnedPoll(ctx, stale1, "poll1")
	require.NoError(t, err)
	_, err = s.RecordVote(ctx, stale2, "poll2", models.ChoiceYes)
	require.NoError(t, err)

	stored := mustLoad(t, s, "u1")
	assert.Equal(t, []string{"poll1"}, stored.Polls)
	assert.Equal(t, []string{"poll2"}, stored.YesVotes)
}

func TestRecordVote(t *testing.T) {
	ctx := context.Background()
	s := newProfileService(t, store.NewMemoryStore())
	p := mustCreate(t, s, "u1")

	next, err := s.RecordVote(ctx, p, "poll1", models.ChoiceYes)
	require.NoError(t, err)
	assert.Equal(t, []string{"poll1"}, next.YesVotes)
	assert.Empty(t, next.NoVotes)
	assert.Empty(t, p.YesVotes, "input snapshot must not change")

	next, err = s.RecordVote(ctx, next, "poll1", models.ChoiceNo)
	require.NoError(t, err)
	assert.Empty(t, next.YesVotes)
	assert.Equal(t, []string{"poll1"}, next.NoVotes)

	stored := mustLoad(t, s, "u1")
	assert.Equal(t, next.YesVotes, stored.YesVotes)
	assert.Equal(t, next.NoVotes, stored.NoVotes)

	_, err = s.RecordVote(ctx, next, "poll1", models.Choice("maybe"))
	require.ErrorIs(t, err, models.ErrInvalidChoice)
}

func TestRecorderCommitFailure(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	p := mustCreate(t, newProfileService(t, db), "u1")
	s := newProfileService(t, failingStore{db})

	_, err := s.AddOwnedPoll(ctx, p, "poll1")
	require.ErrorIs(t, err, models.ErrUpdateConflict)
	assert.Empty(t, p.Polls)

	_, err = s.RemoveOwnedPoll(ctx, p, "poll1")
	require.ErrorIs(t, err, models.ErrUpdateConflict)

	_, err = s.RecordVote(ctx, p, "poll1", models.ChoiceNo)
	require.ErrorIs(t, err, models.ErrUpdateConflict)

	_, err = s.Follow(ctx, "u1", "u1")
	require.ErrorIs(t, err, models.ErrFollowConflict)
}
