package seed

import (
	"fmt"
	"log"

	"circles/internal/database"
	"circles/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	ShouldClean bool
	// SkipBcrypt stores DefaultPassword unhashed. Tests only.
	SkipBcrypt bool
	// RandSeed makes generated data reproducible when non-zero.
	RandSeed int64
}

// DemoUsername is the fixed account every seed run creates first.
const DemoUsername = "demo"

const minUsers = 4

var listTiers = []models.ListVisibility{
	models.VisibilityPublic,
	models.VisibilityCircle,
	models.VisibilityPrivate,
}

// Seed populates the database with demo data
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers < minUsers {
		opts.NumUsers = minUsers
	}
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			log.Printf("⚠️  Warning: Could not clear all existing data, but continuing anyway: %v", err)
		}
	}

	catalog, err := LoadCatalog()
	if err != nil {
		return err
	}
	restaurants, err := Restaurants(db)
	if err != nil {
		return err
	}
	log.Printf("✓ %d restaurants available", len(restaurants))

	f, err := NewFactory(db, opts)
	if err != nil {
		return err
	}

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	circles, members, err := createCircles(f, catalog.Circles, users)
	if err != nil {
		return fmt.Errorf("failed to create circles: %w", err)
	}
	log.Printf("✓ %d circles created", len(circles))

	lists, err := createLists(f, catalog.Lists, circles, users, restaurants)
	if err != nil {
		return fmt.Errorf("failed to create lists: %w", err)
	}
	log.Printf("✓ %d lists created", len(lists))

	shared := 0
	for i, l := range lists {
		target := circles[(i+1)%len(circles)]
		if l.CircleID != nil && *l.CircleID == target.ID {
			continue
		}
		if !members[target.ID][l.OwnerID] {
			continue
		}
		if err := f.ShareList(l, target, ownerOf(users, l.OwnerID), i%2 == 0); err != nil {
			return err
		}
		shared++
	}
	log.Printf("✓ %d lists shared into circles", shared)

	follows := 0
	for i, u := range users {
		for step := 1; step <= 2; step++ {
			target := users[(i+step)%len(users)]
			if target.ID == u.ID {
				continue
			}
			if err := f.Follow(u, target); err != nil {
				return err
			}
			follows++
		}
	}
	log.Printf("✓ %d follow edges created", follows)

	posts := 0
	for i, u := range users {
		if _, err := f.CreatePost(u, restaurants[i%len(restaurants)], nil); err != nil {
			return err
		}
		posts++
	}
	for i, c := range circles {
		owner := ownerOf(users, c.OwnerID)
		r := restaurants[(i+1)%len(restaurants)]
		if _, err := f.CreatePost(owner, r, c); err != nil {
			return err
		}
		if err := f.Recommend(c, owner, r); err != nil {
			return err
		}
		posts++
	}
	log.Printf("✓ %d reviews and %d circle recommendations created", posts, len(circles))

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	demo, err := f.CreateUser(func(u *models.User) {
		u.Username = DemoUsername
		u.Email = DemoUsername + "@example.com"
		u.Name = "Demo Diner"
		u.RequireFollowApproval = false
	})
	if err != nil {
		return nil, err
	}
	users = append(users, demo)

	for len(users) < count {
		u, err := f.CreateUser()
		if err != nil {
			// Generated handles occasionally collide; try another.
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, u)
		if len(users)%10 == 0 {
			log.Printf("Created %d users...", len(users))
		}
	}
	return users, nil
}

// createCircles gives every template an owner and a handful of members. Invite
// only circles also get one pending request. The returned map holds active
// members per circle.
func createCircles(f *Factory, templates []CatalogCircle, users []*models.User) ([]*models.Circle, map[uint]map[uint]bool, error) {
	circles := make([]*models.Circle, 0, len(templates))
	members := make(map[uint]map[uint]bool, len(templates))
	for i, tpl := range templates {
		owner := users[i%len(users)]
		c, err := f.CreateCircle(owner, tpl)
		if err != nil {
			return nil, nil, err
		}
		active := map[uint]bool{owner.ID: true}

		for step := 1; step <= 3; step++ {
			u := users[(i+step)%len(users)]
			if active[u.ID] {
				continue
			}
			role := models.CircleRoleMember
			status := models.MembershipStatusActive
			switch {
			case step == 1:
				role = models.CircleRoleAdmin
			case step == 3 && !tpl.AllowPublicJoin:
				status = models.MembershipStatusPending
			}
			if err := f.AddMember(c, u, role, status); err != nil {
				return nil, nil, fmt.Errorf("add member to %s: %w", c.Name, err)
			}
			if status == models.MembershipStatusActive {
				active[u.ID] = true
				c.MemberCount++
			}
		}
		circles = append(circles, c)
		members[c.ID] = active
	}
	return circles, members, nil
}

// createLists cycles through the templates and tiers. Each list lives in the
// circle its owner created.
func createLists(f *Factory, templates []CatalogList, circles []*models.Circle, users []*models.User, restaurants []models.Restaurant) ([]*models.RestaurantList, error) {
	lists := make([]*models.RestaurantList, 0, len(templates))
	for i, tpl := range templates {
		c := circles[i%len(circles)]
		owner := ownerOf(users, c.OwnerID)

		vis, err := models.VisibilityFromTier(listTiers[i%len(listTiers)])
		if err != nil {
			return nil, err
		}
		var circleID *uint
		if vis.Tier() != models.VisibilityPrivate {
			id := c.ID
			circleID = &id
		}
		l, err := f.CreateList(owner, tpl, circleID, vis)
		if err != nil {
			return nil, err
		}
		if err := f.AddItems(l, owner, pickRestaurants(restaurants, i*3, 3+i%3)); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, nil
}

func pickRestaurants(all []models.Restaurant, offset, n int) []models.Restaurant {
	if n > len(all) {
		n = len(all)
	}
	out := make([]models.Restaurant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, all[(offset+i)%len(all)])
	}
	return out
}

func ownerOf(users []*models.User, id uint) *models.User {
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	return &models.User{ID: id}
}

// ClearAll removes every seeded row. Postgres truncates with identity reset;
// other dialects delete table by table, children first.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()

	if db.Dialector.Name() == "postgres" {
		tables := make([]string, 0, len(all))
		for _, m := range all {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err != nil {
				return err
			}
			tables = append(tables, stmt.Schema.Table)
		}
		sql := "TRUNCATE TABLE "
		for i, t := range tables {
			if i > 0 {
				sql += ", "
			}
			sql += t
		}
		return db.Exec(sql + " RESTART IDENTITY CASCADE").Error
	}

	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
