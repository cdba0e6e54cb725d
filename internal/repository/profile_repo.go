package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaam8/poll_profiles/internal/models"
	"github.com/jaam8/poll_profiles/internal/store"
	"go.uber.org/zap"
)

// ProfileRepository reads and writes users/{uid} and usernames/{name}
// documents. Multi-document writes always go through one batch.
type ProfileRepository struct {
	db store.Store
	l  *zap.Logger
}

func New(db store.Store, l *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db: db,
		l:  l,
	}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Get(ctx, models.UsersCollection, uid, &profile)
	if errors.Is(err, store.ErrNotFound) {
		r.l.Debug("profile not found", zap.String("uid", uid))
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.l.Debug("failed to get profile", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("repository: failed to get profile: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}

// LookupUID resolves a handle through its reservation.
func (r *ProfileRepository) LookupUID(ctx context.Context, name string) (string, error) {
	var res models.UsernameReservation
	err := r.db.Get(ctx, models.UsernamesCollection, name, &res)
	if errors.Is(err, store.ErrNotFound) {
		return "", models.ErrNotFound
	}
	if err != nil {
		r.l.Debug("failed to get username reservation", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("repository: failed to get username reservation: %w", err)
	}
	return res.UID, nil
}

func (r *ProfileRepository) NameReserved(ctx context.Context, name string) (bool, error) {
	_, err := r.LookupUID(ctx, name)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// CreateProfile writes the profile and reserves its name in one batch. The
// reservation is created, not overwritten, so a name taken concurrently fails
// the whole batch.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	r.l.Debug("creating profile", zap.String("uid", profile.UID), zap.String("name", profile.Name))
	batch := r.db.Batch()
	batch.Set(models.UsersCollection, profile.UID, profile)
	batch.Create(models.UsernamesCollection, profile.Name, models.UsernameReservation{UID: profile.UID})
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("error committing profile batch", zap.Error(err))
		return fmt.Errorf("repository: profile batch commit error: %w", err)
	}
	return nil
}

// UpdateProfile writes the user editable fields of uid and leaves its lists
// alone. When the name changes the reservation moves in the same batch.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, uid, oldName string, edits models.ProfileEdits) error {
	batch := r.db.Batch()
	batch.Update(models.UsersCollection, uid, map[string]interface{}{
		models.FieldName:  edits.Name,
		models.FieldBio:   edits.Bio,
		models.FieldImage: edits.Image,
	})
	if oldName != edits.Name {
		if oldName != "" {
			batch.Delete(models.UsernamesCollection, oldName)
		}
		batch.Create(models.UsernamesCollection, edits.Name, models.UsernameReservation{UID: uid})
	}
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("error committing profile update batch", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("repository: profile update batch commit error: %w", err)
	}
	return nil
}

// Follow adds the follow edge on both profiles in one batch.
func (r *ProfileRepository) Follow(ctx context.Context, followerUID, followingUID string) error {
	batch := r.db.Batch()
	batch.ArrayUnion(models.UsersCollection, followerUID, models.FieldFollowing, followingUID)
	batch.ArrayUnion(models.UsersCollection, followingUID, models.FieldFollowers, followerUID)
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("error committing follow batch",
			zap.String("follower", followerUID),
			zap.String("following", followingUID),
			zap.Error(err))
		return fmt.Errorf("repository: follow batch commit error: %w", err)
	}
	return nil
}

// Unfollow removes the follow edge from both profiles in one batch.
func (r *ProfileRepository) Unfollow(ctx context.Context, followerUID, followingUID string) error {
	batch := r.db.Batch()
	batch.ArrayRemove(models.UsersCollection, followerUID, models.FieldFollowing, followingUID)
	batch.ArrayRemove(models.UsersCollection, followingUID, models.FieldFollowers, followerUID)
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("error committing unfollow batch",
			zap.String("follower", followerUID),
			zap.String("following", followingUID),
			zap.Error(err))
		return fmt.Errorf("repository: unfollow batch commit error: %w", err)
	}
	return nil
}

func (r *ProfileRepository) AddPollID(ctx context.Context, uid, pollID string) error {
	batch := r.db.Batch()
	batch.ArrayUnion(models.UsersCollection, uid, models.FieldPolls, pollID)
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("failed to add poll id", zap.String("uid", uid), zap.String("poll_id", pollID), zap.Error(err))
		return fmt.Errorf("repository: add poll id error: %w", err)
	}
	return nil
}

func (r *ProfileRepository) RemovePollID(ctx context.Context, uid, pollID string) error {
	batch := r.db.Batch()
	batch.ArrayRemove(models.UsersCollection, uid, models.FieldPolls, pollID)
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("failed to remove poll id", zap.String("uid", uid), zap.String("poll_id", pollID), zap.Error(err))
		return fmt.Errorf("repository: remove poll id error: %w", err)
	}
	return nil
}

// RecordVote adds pollID to the chosen vote list and drops it from the
// opposite one, so a poll is never in both.
func (r *ProfileRepository) RecordVote(ctx context.Context, uid, pollID string, choice models.Choice) error {
	field, opposite := choice.Fields()
	batch := r.db.Batch()
	batch.ArrayRemove(models.UsersCollection, uid, opposite, pollID)
	batch.ArrayUnion(models.UsersCollection, uid, field, pollID)
	if err := batch.Commit(ctx); err != nil {
		r.l.Debug("failed to record vote",
			zap.String("uid", uid),
			zap.String("poll_id", pollID),
			zap.String("choice", string(choice)),
			zap.Error(err))
		return fmt.Errorf("repository: record vote error: %w", err)
	}
	return nil
}
