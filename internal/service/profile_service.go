package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jaam8/poll_profiles/internal/models"
	"github.com/jaam8/poll_profiles/internal/notify"
	"github.com/jaam8/poll_profiles/internal/repository"
	"go.uber.org/zap"
)

type ProfileOptions struct {
	HandleAttempts int
	DefaultImage   string
}

type ProfileService struct {
	r            *repository.ProfileRepository
	n            notify.Notifier
	l            *zap.Logger
	handles      *HandleGenerator
	defaultImage string
	now          func() time.Time
}

func NewProfileService(r *repository.ProfileRepository, n notify.Notifier, l *zap.Logger, opts ProfileOptions) *ProfileService {
	if n == nil {
		n = notify.Nop{}
	}
	return &ProfileService{
		r:            r,
		n:            n,
		l:            l,
		handles:      NewHandleGenerator(opts.HandleAttempts),
		defaultImage: opts.DefaultImage,
		now:          time.Now,
	}
}

// CreateProfile provisions the default profile for a new identity together
// with a freshly reserved placeholder handle.
func (s *ProfileService) CreateProfile(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	name, err := s.handles.Generate(ctx, identity.Email, s.r.NameReserved)
	if err != nil {
		s.l.Error("failed to generate username", zap.String("uid", identity.UID), zap.Error(err))
		return nil, fmt.Errorf("service: failed to create profile: %w: %w", models.ErrCreateConflict, err)
	}

	profile := &models.Profile{
		UID:       identity.UID,
		Email:     identity.Email,
		Name:      name,
		Image:     identity.Image,
		CreatedAt: s.now().UTC(),
	}
	if profile.Image == "" {
		profile.Image = s.defaultImage
	}
	profile.Normalize()

	if err := s.r.CreateProfile(ctx, profile); err != nil {
		s.l.Error("failed to create profile", zap.String("uid", identity.UID), zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("service: failed to create profile: %w: %w", models.ErrCreateConflict, err)
	}
	s.l.Info("profile created", zap.String("uid", profile.UID), zap.String("name", profile.Name))
	return profile, nil
}

func (s *ProfileService) LoadProfile(ctx context.Context, uid string) (*models.Profile, error) {
	profile, err := s.r.GetProfile(ctx, uid)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, err
		default:
			s.l.Error("failed to load profile", zap.String("uid", uid), zap.Error(err))
			return nil, fmt.Errorf("service: failed to load profile: %w", err)
		}
	}
	return profile, nil
}

// LookupProfile resolves a handle to its profile.
func (s *ProfileService) LookupProfile(ctx context.Context, name string) (*models.Profile, error) {
	uid, err := s.r.LookupUID(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, err
		default:
			s.l.Error("failed to resolve username", zap.String("name", name), zap.Error(err))
			return nil, fmt.Errorf("service: failed to resolve username: %w", err)
		}
	}
	return s.LoadProfile(ctx, uid)
}

// UpdateProfile writes the editable fields only, so follows and votes that
// landed after current was read survive. A rename moves the username
// reservation in the same batch.
func (s *ProfileService) UpdateProfile(ctx context.Context, current *models.Profile, edits models.ProfileEdits) (*models.Profile, error) {
	name := strings.TrimSpace(edits.Name)
	if name == "" {
		return nil, fmt.Errorf("service: failed to update profile: %w: %w", models.ErrUpdateConflict, models.ErrInvalidHandle)
	}
	if name != current.Name {
		owner, err := s.r.LookupUID(ctx, name)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			s.l.Error("failed to check username", zap.String("name", name), zap.Error(err))
			return nil, fmt.Errorf("service: failed to update profile: %w: %w", models.ErrUpdateConflict, err)
		case owner != current.UID:
			s.l.Warn("username already taken", zap.String("name", name), zap.String("uid", current.UID))
			return nil, fmt.Errorf("service: failed to update profile: %w: %w", models.ErrUpdateConflict, models.ErrHandleTaken)
		}
	}

	edits.Name = name
	if err := s.r.UpdateProfile(ctx, current.UID, current.Name, edits); err != nil {
		s.l.Error("failed to update profile", zap.String("uid", current.UID), zap.Error(err))
		return nil, fmt.Errorf("service: failed to update profile: %w: %w", models.ErrUpdateConflict, err)
	}
	next, err := s.LoadProfile(ctx, current.UID)
	if err != nil {
		// the write went through, fall back to the caller's view of it
		s.l.Warn("failed to reload updated profile", zap.String("uid", current.UID), zap.Error(err))
		next = current.Clone()
		next.Name, next.Bio, next.Image = edits.Name, edits.Bio, edits.Image
	}
	return next, nil
}

func (s *ProfileService) Follow(ctx context.Context, followerUID, followingUID string) (string, error) {
	if err := s.r.Follow(ctx, followerUID, followingUID); err != nil {
		s.l.Error("failed to follow", zap.String("follower", followerUID), zap.String("following", followingUID), zap.Error(err))
		return "", fmt.Errorf("service: failed to follow: %w: %w", models.ErrFollowConflict, err)
	}
	s.l.Info("followed", zap.String("follower", followerUID), zap.String("following", followingUID))
	s.notifyFollow(ctx, followerUID, followingUID)
	return followingUID, nil
}

func (s *ProfileService) Unfollow(ctx context.Context, followerUID, followingUID string) (string, error) {
	if err := s.r.Unfollow(ctx, followerUID, followingUID); err != nil {
		s.l.Error("failed to unfollow", zap.String("follower", followerUID), zap.String("following", followingUID), zap.Error(err))
		return "", fmt.Errorf("service: failed to unfollow: %w: %w", models.ErrUnfollowConflict, err)
	}
	s.l.Info("unfollowed", zap.String("follower", followerUID), zap.String("following", followingUID))
	return followingUID, nil
}

// Followers returns a window of the uids following profile.
func (s *ProfileService) Followers(profile *models.Profile, offset, limit int) []string {
	return window(profile.Followers, offset, limit)
}

// Following returns a window of the uids profile follows.
func (s *ProfileService) Following(profile *models.Profile, offset, limit int) []string {
	return window(profile.Following, offset, limit)
}

// AddOwnedPoll records pollID as authored by profile. On success the
// snapshot is updated the same way the stored document was.
func (s *ProfileService) AddOwnedPoll(ctx context.Context, profile *models.Profile, pollID string) (string, error) {
	if err := s.r.AddPollID(ctx, profile.UID, pollID); err != nil {
		s.l.Error("failed to add poll", zap.String("uid", profile.UID), zap.String("poll_id", pollID), zap.Error(err))
		return "", fmt.Errorf("service: failed to add poll: %w: %w", models.ErrUpdateConflict, err)
	}
	if !slices.Contains(profile.Polls, pollID) {
		profile.Polls = append(profile.Polls, pollID)
	}
	s.n.PollCreated(ctx, profile.Name, pollID)
	return pollID, nil
}

func (s *ProfileService) RemoveOwnedPoll(ctx context.Context, profile *models.Profile, pollID string) (string, error) {
	if err := s.r.RemovePollID(ctx, profile.UID, pollID); err != nil {
		s.l.Error("failed to remove poll", zap.String("uid", profile.UID), zap.String("poll_id", pollID), zap.Error(err))
		return "", fmt.Errorf("service: failed to remove poll: %w: %w", models.ErrUpdateConflict, err)
	}
	profile.Polls = slices.DeleteFunc(profile.Polls, func(id string) bool { return id == pollID })
	return pollID, nil
}

// RecordVote stores a yes/no vote. A vote on a poll already voted the other
// way moves it to the new list.
func (s *ProfileService) RecordVote(ctx context.Context, profile *models.Profile, pollID string, choice models.Choice) (*models.Profile, error) {
	if choice != models.ChoiceYes && choice != models.ChoiceNo {
		return nil, models.ErrInvalidChoice
	}
	if err := s.r.RecordVote(ctx, profile.UID, pollID, choice); err != nil {
		s.l.Error("failed to record vote",
			zap.String("uid", profile.UID),
			zap.String("poll_id", pollID),
			zap.String("choice", string(choice)),
			zap.Error(err))
		return nil, fmt.Errorf("service: failed to record vote: %w: %w", models.ErrUpdateConflict, err)
	}

	next := profile.Clone()
	isPoll := func(id string) bool { return id == pollID }
	if choice == models.ChoiceYes {
		next.NoVotes = slices.DeleteFunc(next.NoVotes, isPoll)
		if !slices.Contains(next.YesVotes, pollID) {
			next.YesVotes = append(next.YesVotes, pollID)
		}
	} else {
		next.YesVotes = slices.DeleteFunc(next.YesVotes, isPoll)
		if !slices.Contains(next.NoVotes, pollID) {
			next.NoVotes = append(next.NoVotes, pollID)
		}
	}
	s.l.Info("vote recorded",
		zap.String("uid", profile.UID),
		zap.String("poll_id", pollID),
		zap.String("choice", string(choice)))
	return next, nil
}

func (s *ProfileService) notifyFollow(ctx context.Context, followerUID, followingUID string) {
	if _, ok := s.n.(notify.Nop); ok {
		return
	}
	s.n.Followed(ctx, s.displayName(ctx, followerUID), s.displayName(ctx, followingUID))
}

func (s *ProfileService) displayName(ctx context.Context, uid string) string {
	profile, err := s.r.GetProfile(ctx, uid)
	if err != nil {
		return uid
	}
	return profile.Name
}

func window(list []string, offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []string{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(list[offset:end])
}
