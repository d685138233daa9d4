// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"circles/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var cuisines = []string{"Thai", "Vietnamese", "Mexican", "Sichuan", "Neapolitan pizza", "Dim sum", "Barbecue", "Ramen"}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	hash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	if opts.RandSeed != 0 {
		gofakeit.Seed(opts.RandSeed)
	} else {
		gofakeit.Seed(time.Now().UnixNano())
	}

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}
	return &Factory{db: db, opts: opts, hash: hash}, nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s%s%d", first[:1], last, gofakeit.Number(10, 9999)))
	handle = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, handle)

	user := &models.User{
		Username:              handle,
		Email:                 handle + "@example.com",
		Password:              f.hash,
		Name:                  first + " " + last,
		Bio:                   fmt.Sprintf("%s fan. %s", gofakeit.RandomString(cuisines), gofakeit.Sentence(6)),
		Avatar:                fmt.Sprintf("https://i.pravatar.cc/150?u=%s", handle),
		RequireFollowApproval: gofakeit.Number(1, 5) == 1,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateCircle persists a circle from a template with an active owner
// membership.
func (f *Factory) CreateCircle(owner *models.User, tpl CatalogCircle) (*models.Circle, error) {
	c := &models.Circle{
		Name:            tpl.Name,
		Description:     tpl.Description,
		OwnerID:         owner.ID,
		InviteCode:      uuid.NewString(),
		AllowPublicJoin: tpl.AllowPublicJoin,
		Tags:            tpl.Tags,
		PrimaryCuisine:  tpl.PrimaryCuisine,
		PriceRange:      tpl.PriceRange,
		Location:        tpl.Location,
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return f.addMember(tx, c, owner, models.CircleRoleOwner, models.MembershipStatusActive)
	})
	if err != nil {
		return nil, fmt.Errorf("create circle %s: %w", tpl.Name, err)
	}
	c.MemberCount = 1
	return c, nil
}

// AddMember adds u to c. Active memberships bump member_count.
func (f *Factory) AddMember(c *models.Circle, u *models.User, role models.CircleRole, status models.MembershipStatus) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		return f.addMember(tx, c, u, role, status)
	})
}

func (f *Factory) addMember(tx *gorm.DB, c *models.Circle, u *models.User, role models.CircleRole, status models.MembershipStatus) error {
	m := &models.CircleMembership{CircleID: c.ID, UserID: u.ID, Role: role, Status: status}
	if status == models.MembershipStatusActive && role != models.CircleRoleOwner {
		now := time.Now()
		m.ApprovedByID = &c.OwnerID
		m.ApprovedAt = &now
	}
	if err := tx.Create(m).Error; err != nil {
		return err
	}
	if status != models.MembershipStatusActive {
		return nil
	}
	return tx.Model(&models.Circle{}).Where("id = ?", c.ID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
}

// CreateList persists a list from a template with the given visibility.
func (f *Factory) CreateList(owner *models.User, tpl CatalogList, circleID *uint, vis models.VisibilitySettings) (*models.RestaurantList, error) {
	l, err := models.NewRestaurantList(owner.ID, tpl.Name, circleID, vis)
	if err != nil {
		return nil, err
	}
	l.Description = tpl.Description
	l.Tags = tpl.Tags
	if err := f.db.Omit("Items").Create(l).Error; err != nil {
		return nil, fmt.Errorf("create list %s: %w", tpl.Name, err)
	}
	return l, nil
}

// AddItems appends restaurants to a list with generated impressions.
func (f *Factory) AddItems(l *models.RestaurantList, addedBy *models.User, restaurants []models.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}
	items := make([]models.RestaurantListItem, 0, len(restaurants))
	for i, r := range restaurants {
		rating := gofakeit.Number(3, 5)
		items = append(items, models.RestaurantListItem{
			ListID:        l.ID,
			RestaurantID:  r.ID,
			Rating:        &rating,
			Liked:         gofakeit.Sentence(5),
			Notes:         gofakeit.Sentence(8),
			MustTryDishes: []string{gofakeit.Dinner(), gofakeit.Dessert()},
			AddedByID:     addedBy.ID,
			Position:      i,
		})
	}
	if err := f.db.Create(&items).Error; err != nil {
		return fmt.Errorf("add items to list %d: %w", l.ID, err)
	}
	return nil
}

// ShareList shares l into c.
func (f *Factory) ShareList(l *models.RestaurantList, c *models.Circle, by *models.User, canEdit bool) error {
	share := &models.CircleSharedList{CircleID: c.ID, ListID: l.ID, SharedByID: by.ID, CanEdit: canEdit}
	if err := f.db.Create(share).Error; err != nil {
		return fmt.Errorf("share list %d into circle %d: %w", l.ID, c.ID, err)
	}
	return nil
}

// Follow creates an edge from follower to target, pending when the target
// requires approval.
func (f *Factory) Follow(follower, target *models.User) error {
	edge := &models.UserFollower{FollowerID: follower.ID, FollowingID: target.ID, Status: models.FollowStatusFollowing}
	if target.RequireFollowApproval {
		edge.Status = models.FollowStatusPending
	} else {
		now := time.Now()
		edge.ApprovedAt = &now
	}
	if err := f.db.Create(edge).Error; err != nil {
		return fmt.Errorf("follow %d -> %d: %w", follower.ID, target.ID, err)
	}
	return nil
}

// CreatePost writes a review of r. A non-nil circle scopes it to that circle.
func (f *Factory) CreatePost(author *models.User, r models.Restaurant, circle *models.Circle) (*models.Post, error) {
	post := &models.Post{
		UserID:       author.ID,
		RestaurantID: r.ID,
		Visibility:   models.PostVisibilityPublic,
		Content:      gofakeit.Paragraph(1, 3, 12, " "),
		Rating:       gofakeit.Number(2, 5),
		DishesTried:  []string{gofakeit.Lunch(), gofakeit.Dinner()},
	}
	if circle != nil {
		post.CircleID = &circle.ID
		post.Visibility = models.PostVisibilityCircle
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post by %d: %w", author.ID, err)
	}
	return post, nil
}

// Recommend records u recommending r to c.
func (f *Factory) Recommend(c *models.Circle, u *models.User, r models.Restaurant) error {
	rec := &models.Recommendation{CircleID: c.ID, RestaurantID: r.ID, UserID: u.ID, Note: gofakeit.Sentence(8)}
	if err := f.db.Create(rec).Error; err != nil {
		return fmt.Errorf("recommend %d to circle %d: %w", r.ID, c.ID, err)
	}
	return nil
}
