package service

import (
	"context"
	"errors"
	"testing"

	"circles/internal/models"
	"circles/internal/places"
	"circles/internal/repository"
)

type userRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.User, error)
	getByEmailFn   func(context.Context, string) (*models.User, error)
	findByHandleFn func(context.Context, string) (*models.User, error)
	createFn       func(context.Context, *models.User) error
	updateFn       func(context.Context, *models.User) error
	searchFn       func(context.Context, string, int) ([]models.User, error)
	suggestionsFn  func(context.Context, uint, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.findByHandleFn(ctx, handle)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit)
}
func (s *userRepoStub) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	return s.suggestionsFn(ctx, userID, limit)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:      func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:   func(context.Context, string) (*models.User, error) { return nil, nil },
		findByHandleFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:       func(context.Context, *models.User) error { return nil },
		updateFn:       func(context.Context, *models.User) error { return nil },
		searchFn:       func(context.Context, string, int) ([]models.User, error) { return nil, nil },
		suggestionsFn:  func(context.Context, uint, int) ([]models.User, error) { return nil, nil },
	}
}

type followRepoStub struct {
	getFn        func(context.Context, uint, uint) (*models.UserFollower, error)
	getByIDFn    func(context.Context, uint) (*models.UserFollower, error)
	createFn     func(context.Context, *models.UserFollower) error
	deleteFn     func(context.Context, uint, uint) error
	deleteByIDFn func(context.Context, uint) error
	acceptFn     func(context.Context, uint) (*models.UserFollower, error)
	followersFn  func(context.Context, uint) ([]models.User, error)
	followingFn  func(context.Context, uint) ([]models.User, error)
	pendingForFn func(context.Context, uint) ([]models.UserFollower, error)
	countsFn     func(context.Context, uint) (repository.FollowCounts, error)
}

func (s *followRepoStub) Get(ctx context.Context, followerID, followingID uint) (*models.UserFollower, error) {
	return s.getFn(ctx, followerID, followingID)
}
func (s *followRepoStub) GetByID(ctx context.Context, id uint) (*models.UserFollower, error) {
	return s.getByIDFn(ctx, id)
}
func (s *followRepoStub) Create(ctx context.Context, edge *models.UserFollower) error {
	return s.createFn(ctx, edge)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) error {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) DeleteByID(ctx context.Context, id uint) error {
	return s.deleteByIDFn(ctx, id)
}
func (s *followRepoStub) Accept(ctx context.Context, id uint) (*models.UserFollower, error) {
	return s.acceptFn(ctx, id)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) PendingFor(ctx context.Context, userID uint) ([]models.UserFollower, error) {
	return s.pendingForFn(ctx, userID)
}
func (s *followRepoStub) Counts(ctx context.Context, userID uint) (repository.FollowCounts, error) {
	return s.countsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		getFn:        func(context.Context, uint, uint) (*models.UserFollower, error) { return nil, nil },
		getByIDFn:    func(context.Context, uint) (*models.UserFollower, error) { return &models.UserFollower{}, nil },
		createFn:     func(context.Context, *models.UserFollower) error { return nil },
		deleteFn:     func(context.Context, uint, uint) error { return nil },
		deleteByIDFn: func(context.Context, uint) error { return nil },
		acceptFn:     func(context.Context, uint) (*models.UserFollower, error) { return &models.UserFollower{}, nil },
		followersFn:  func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followingFn:  func(context.Context, uint) ([]models.User, error) { return nil, nil },
		pendingForFn: func(context.Context, uint) ([]models.UserFollower, error) { return nil, nil },
		countsFn:     func(context.Context, uint) (repository.FollowCounts, error) { return repository.FollowCounts{}, nil },
	}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppCode(t, err, models.CodeValidation)
}

type restaurantRepoStub struct {
	createFn       func(context.Context, *models.Restaurant) error
	getByIDFn      func(context.Context, uint) (*models.Restaurant, error)
	getByPlaceIDFn func(context.Context, string) (*models.Restaurant, error)
	updateFn       func(context.Context, *models.Restaurant) error
	searchFn       func(context.Context, repository.RestaurantSearch) ([]models.Restaurant, error)
}

func (s *restaurantRepoStub) Create(ctx context.Context, r *models.Restaurant) error {
	return s.createFn(ctx, r)
}
func (s *restaurantRepoStub) GetByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	return s.getByIDFn(ctx, id)
}
func (s *restaurantRepoStub) GetByPlaceID(ctx context.Context, placeID string) (*models.Restaurant, error) {
	return s.getByPlaceIDFn(ctx, placeID)
}
func (s *restaurantRepoStub) Update(ctx context.Context, r *models.Restaurant) error {
	return s.updateFn(ctx, r)
}
func (s *restaurantRepoStub) Search(ctx context.Context, q repository.RestaurantSearch) ([]models.Restaurant, error) {
	return s.searchFn(ctx, q)
}

func noopRestaurantRepo() *restaurantRepoStub {
	return &restaurantRepoStub{
		createFn:       func(_ context.Context, r *models.Restaurant) error { r.ID = 1; return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Restaurant, error) { return &models.Restaurant{ID: id}, nil },
		getByPlaceIDFn: func(context.Context, string) (*models.Restaurant, error) { return nil, nil },
		updateFn:       func(context.Context, *models.Restaurant) error { return nil },
		searchFn:       func(context.Context, repository.RestaurantSearch) ([]models.Restaurant, error) { return nil, nil },
	}
}

type placesStub struct {
	searchFn  func(context.Context, string, *places.Bias) ([]places.Place, error)
	detailsFn func(context.Context, string) (*places.Place, error)
}

func (s *placesStub) Search(ctx context.Context, q string, bias *places.Bias) ([]places.Place, error) {
	return s.searchFn(ctx, q, bias)
}
func (s *placesStub) Details(ctx context.Context, placeID string) (*places.Place, error) {
	return s.detailsFn(ctx, placeID)
}

func noopPlaces() *placesStub {
	return &placesStub{
		searchFn:  func(context.Context, string, *places.Bias) ([]places.Place, error) { return nil, nil },
		detailsFn: func(context.Context, string) (*places.Place, error) { return nil, nil },
	}
}
