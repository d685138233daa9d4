package service

import (
	"context"
	"strings"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

const maxBioLength = 500

// UserService serves profile reads and self-service profile edits.
type UserService struct {
	userRepo repository.UserRepository
	store    *cache.Store
}

// UpdateProfileInput carries optional profile fields; nil leaves a field as is.
type UpdateProfileInput struct {
	UserID uint
	Name   *string
	Bio    *string
}

// PrivacySettings is the user-controlled privacy surface.
type PrivacySettings struct {
	RequireFollowApproval bool `json:"require_follow_approval"`
}

// NewUserService returns a UserService. store may be nil.
func NewUserService(userRepo repository.UserRepository, store *cache.Store) *UserService {
	return &UserService{userRepo: userRepo, store: store}
}

// GetUserByID returns a profile, served from Redis when cached. The cached
// copy never carries the password hash, so it must not be written back.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.store.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) > validation.MaxNameLength {
			return nil, models.NewValidationError("Name too long (max 120 characters)")
		}
		user.Name = name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLength {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}

	return s.save(ctx, user)
}

func (s *UserService) Privacy(ctx context.Context, userID uint) (*PrivacySettings, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PrivacySettings{RequireFollowApproval: user.RequireFollowApproval}, nil
}

// SetPrivacy updates the privacy settings. Existing pending follow requests
// stay pending when approval is turned off.
func (s *UserService) SetPrivacy(ctx context.Context, userID uint, settings PrivacySettings) (*PrivacySettings, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.RequireFollowApproval = settings.RequireFollowApproval
	if _, err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return &PrivacySettings{RequireFollowApproval: user.RequireFollowApproval}, nil
}

// SetAvatar points the user's avatar at url.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, url string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = url
	return s.save(ctx, user)
}

func (s *UserService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.store.Invalidate(ctx, cache.UserKey(user.ID))
	return user, nil
}
