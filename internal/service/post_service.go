package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// PostInput carries review fields. On update nil leaves a field unchanged.
type PostInput struct {
	RestaurantID    uint
	CircleID        *uint
	Visibility      *string
	Content         *string
	Rating          *int
	ServiceRating   *int
	PriceAssessment *string
	Atmosphere      *string
	DishesTried     *[]string
	DietaryOptions  *[]string
	Images          *[]string
}

// PostService owns reviews, their likes and the feed.
type PostService struct {
	posts       repository.PostRepository
	restaurants repository.RestaurantRepository
	circles     repository.CircleRepository
	access      *AccessService
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository, restaurants repository.RestaurantRepository, circles repository.CircleRepository, access *AccessService) *PostService {
	return &PostService{posts: posts, restaurants: restaurants, circles: circles, access: access}
}

func applyPostFields(p *models.Post, in PostInput) error {
	if in.Content != nil {
		if err := validation.ValidatePostContent(*in.Content); err != nil {
			return models.NewValidationError(err.Error())
		}
		p.Content = strings.TrimSpace(*in.Content)
	}
	if in.Rating != nil {
		if err := validation.ValidateRating(in.Rating); err != nil {
			return models.NewValidationError(err.Error())
		}
		p.Rating = *in.Rating
	}
	if in.ServiceRating != nil {
		if err := validation.ValidateRating(in.ServiceRating); err != nil {
			return models.NewValidationError("service " + err.Error())
		}
		v := *in.ServiceRating
		p.ServiceRating = &v
	}
	if in.PriceAssessment != nil {
		if len(*in.PriceAssessment) > 40 {
			return models.NewValidationError("price assessment must not exceed 40 characters")
		}
		p.PriceAssessment = strings.TrimSpace(*in.PriceAssessment)
	}
	if in.Atmosphere != nil {
		if len(*in.Atmosphere) > 120 {
			return models.NewValidationError("atmosphere must not exceed 120 characters")
		}
		p.Atmosphere = strings.TrimSpace(*in.Atmosphere)
	}
	if in.DishesTried != nil {
		if err := validation.ValidateEntries("dishes tried", *in.DishesTried); err != nil {
			return models.NewValidationError(err.Error())
		}
		p.DishesTried = *in.DishesTried
	}
	if in.DietaryOptions != nil {
		if err := validation.ValidateEntries("dietary options", *in.DietaryOptions); err != nil {
			return models.NewValidationError(err.Error())
		}
		p.DietaryOptions = *in.DietaryOptions
	}
	if in.Images != nil {
		if err := validation.ValidateImageURLs(*in.Images); err != nil {
			return models.NewValidationError(err.Error())
		}
		p.Images = *in.Images
	}
	return nil
}

// applyScope sets visibility and circle together. Sending only circle_id
// implies circle visibility; circle visibility requires a circle the author
// is an active member of.
func (s *PostService) applyScope(ctx context.Context, authorID uint, p *models.Post, in PostInput) error {
	vis := p.Visibility
	if in.Visibility != nil {
		v, err := models.ParsePostVisibility(*in.Visibility)
		if err != nil {
			return models.NewValidationError(err.Error())
		}
		vis = v
	} else if in.CircleID != nil && *in.CircleID != 0 {
		vis = models.PostVisibilityCircle
	}
	if vis == "" {
		vis = models.PostVisibilityPublic
	}

	circleID := p.CircleID
	if in.CircleID != nil {
		circleID = nil
		if *in.CircleID != 0 {
			id := *in.CircleID
			circleID = &id
		}
	}
	if vis != models.PostVisibilityCircle {
		if in.CircleID != nil && circleID != nil {
			return models.NewValidationError("circle_id requires circle visibility")
		}
		p.Visibility, p.CircleID, p.Circle = vis, nil, nil
		return nil
	}
	if circleID == nil {
		return models.NewValidationError("circle visibility requires circle_id")
	}
	if p.CircleID == nil || *p.CircleID != *circleID {
		circle, err := s.circles.GetByID(ctx, *circleID)
		if err != nil {
			return err
		}
		if _, err := s.access.RequireActiveMember(ctx, authorID, circle.ID); err != nil {
			return err
		}
		p.Circle = circle
	}
	p.Visibility, p.CircleID = vis, circleID
	return nil
}

// Create posts a review of an existing restaurant. Content and a 1-5 rating
// are required.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if in.RestaurantID == 0 {
		return nil, models.NewValidationError("restaurant_id is required")
	}
	if in.Content == nil {
		return nil, models.NewValidationError("content is required")
	}
	if in.Rating == nil {
		return nil, models.NewValidationError("rating is required")
	}
	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: authorID, RestaurantID: in.RestaurantID}
	if err := applyPostFields(post, in); err != nil {
		return nil, err
	}
	if err := s.applyScope(ctx, authorID, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID, authorID)
}

// Get returns a readable post with counts and the viewer's liked flag.
func (s *PostService) Get(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReadPost(ctx, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns readable posts matching filter. Filtering by circle requires
// read access to that circle.
func (s *PostService) List(ctx context.Context, viewerID uint, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	if filter.CircleID != 0 {
		circle, err := s.circles.GetByID(ctx, filter.CircleID)
		if err != nil {
			return nil, err
		}
		if err := s.access.CanReadCircle(ctx, viewerID, circle); err != nil {
			return nil, err
		}
	}
	return s.posts.List(ctx, filter, viewerID, limit, offset)
}

// Feed pages through the viewer's feed, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, error) {
	return s.posts.Feed(ctx, viewerID, limit, offset)
}

// Update edits the author's own post.
func (s *PostService) Update(ctx context.Context, actorID, postID uint, in PostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	if err := deny(actorID, "post", "write", post.UserID == actorID, "You can only update your own posts"); err != nil {
		return nil, err
	}
	if err := applyPostFields(post, in); err != nil {
		return nil, err
	}
	if err := s.applyScope(ctx, actorID, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID, actorID)
}

// Delete removes a post. Circle owners and admins may remove posts scoped
// to their circle.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID, actorID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		if post.CircleID == nil {
			return deny(actorID, "post", "delete", false, "You can only delete your own posts")
		}
		if _, err := s.access.RequireManager(ctx, actorID, *post.CircleID); err != nil {
			return err
		}
	}
	return s.posts.Delete(ctx, postID)
}

// ToggleLike likes the post, or unlikes it when the actor already has. The
// returned post carries the actor's new liked flag.
func (s *PostService) ToggleLike(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	if _, err := s.Get(ctx, actorID, postID); err != nil {
		return nil, err
	}
	liked, err := s.posts.IsLiked(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.posts.Unlike(ctx, actorID, postID)
	} else {
		err = s.posts.Like(ctx, actorID, postID)
	}
	if err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID, actorID)
}

// Unlike removes the actor's like; it succeeds when there was none.
func (s *PostService) Unlike(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	if _, err := s.Get(ctx, actorID, postID); err != nil {
		return nil, err
	}
	if err := s.posts.Unlike(ctx, actorID, postID); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID, actorID)
}

// Likers lists users who liked a readable post.
func (s *PostService) Likers(ctx context.Context, viewerID, postID uint, limit, offset int) ([]models.UserSummary, error) {
	if _, err := s.Get(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	users, err := s.posts.Likers(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = users[i].Summary()
	}
	return out, nil
}
