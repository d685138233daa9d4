// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "circles/docs" // swagger docs
	"circles/internal/bootstrap"
	"circles/internal/cache"
	"circles/internal/config"
	"circles/internal/jobs"
	"circles/internal/middleware"
	"circles/internal/models"
	"circles/internal/notifications"
	"circles/internal/places"
	"circles/internal/repository"
	"circles/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	scheduler      *jobs.Scheduler

	userRepo       repository.UserRepository
	circleRepo     repository.CircleRepository
	membershipRepo repository.MembershipRepository
	postRepo       repository.PostRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	accessService     *service.AccessService
	userService       *service.UserService
	followService     *service.FollowService
	circleService     *service.CircleService
	inviteService     *service.InviteService
	listService       *service.ListService
	restaurantService *service.RestaurantService
	searchService     *service.SearchService
	imageService      *service.ImageService

	postService           *service.PostService
	commentService        *service.CommentService
	recommendationService *service.RecommendationService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCatalog: cfg.SeedCatalog})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redis client disables caching, rate limits, ws tickets and cross-instance
// notification fan-out.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store := cache.NewStore(redisClient)

	userRepo := repository.NewUserRepository(db)
	circleRepo := repository.NewCircleRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	listRepo := repository.NewListRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)

	placesClient := places.NewClient(places.Config{
		APIKey:  cfg.PlacesAPIKey,
		BaseURL: cfg.PlacesBaseURL,
		Timeout: time.Duration(cfg.PlacesTimeoutSeconds) * time.Second,
	}, store)

	access := service.NewAccessService(listRepo, membershipRepo)
	lists := service.NewListService(listRepo, restaurantRepo, access)
	recommendations := service.NewRecommendationService(
		repository.NewSavedRestaurantRepository(db),
		repository.NewRecommendationRepository(db),
		restaurantRepo, circleRepo, access,
	)

	scheduler, err := jobs.NewScheduler(cfg.ReconcileSchedule, circleRepo)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		promMiddleware:    middleware.InitMetrics("circles-api"),
		scheduler:         scheduler,
		userRepo:          userRepo,
		circleRepo:        circleRepo,
		membershipRepo:    membershipRepo,
		postRepo:          postRepo,
		notifier:          notifications.NewNotifier(redisClient),
		hub:               notifications.NewHub(),
		accessService:     access,
		userService:       service.NewUserService(userRepo, store),
		followService:     service.NewFollowService(followRepo, userRepo),
		circleService:     service.NewCircleService(circleRepo, membershipRepo, access),
		inviteService:     service.NewInviteService(inviteRepo, membershipRepo, circleRepo, userRepo, access),
		listService:       lists,
		restaurantService: service.NewRestaurantService(restaurantRepo, placesClient),
		searchService:     service.NewSearchService(restaurantRepo, userRepo, lists, placesClient),
		imageService:      service.NewImageService(cfg),

		postService:           service.NewPostService(postRepo, restaurantRepo, circleRepo, access),
		commentService:        service.NewCommentService(postRepo, access),
		recommendationService: recommendations,
	}
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagates request, trace and user ids into the request context for logging.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP). Health checks and
	// preflights are exempt.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions ||
				strings.HasPrefix(c.Path(), "/health/") ||
				c.Path() == "/metrics"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithAppError(c, models.NewRateLimitedError("global"))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static(service.AvatarURLPrefix, s.imageService.AvatarDir(), fiber.Static{
		MaxAge: 86400,
	})

	api := app.Group("/api")
	authRequired := s.AuthRequired()
	optionalAuth := s.OptionalAuth()

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 10, time.Minute, "auth"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, time.Minute, "auth"), s.Login)
	auth.Post("/logout", authRequired, s.Logout)

	// Specific /me routes before generic /:id
	users := api.Group("/users")
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Get("/me/privacy", authRequired, s.GetMyPrivacy)
	users.Put("/me/privacy", authRequired, s.UpdateMyPrivacy)
	users.Post("/me/avatar", authRequired, s.UploadAvatar)
	users.Get("/me/saved-restaurants", authRequired, s.GetMySavedRestaurants)
	users.Get("/:id/posts", optionalAuth, s.GetUserPosts)
	users.Get("/:id/saved-restaurants", authRequired, s.GetUserSavedRestaurants)
	users.Get("/:id", authRequired, s.GetUserProfile)

	restaurants := api.Group("/restaurants")
	restaurants.Post("/", authRequired, s.CreateRestaurant)
	restaurants.Post("/import", authRequired, s.ImportRestaurant)
	restaurants.Get("/:id", optionalAuth, s.GetRestaurant)

	search := api.Group("/search", optionalAuth, middleware.RateLimit(s.redis, 30, time.Minute, "search"))
	search.Get("/", s.Search)
	search.Get("/unified", s.Search)

	circles := api.Group("/circles", authRequired)
	circles.Get("/", s.GetMyCircles)
	circles.Post("/", s.CreateCircle)
	// Specific routes before generic /:id
	circles.Post("/join/:code", s.JoinCircleByCode)
	circles.Get("/requests/pending", s.GetPendingJoinRequests)
	circles.Post("/requests/:requestId/respond", s.RespondToJoinRequest)
	circles.Get("/invites/mine", s.GetMyInvites)
	circles.Post("/invites/:inviteId/respond", s.RespondToInvite)
	circles.Get("/:id/members", s.GetCircleMembers)
	circles.Put("/:id/members/:userId/role", s.SetCircleMemberRole)
	circles.Delete("/:id/members/:userId", s.RemoveCircleMember)
	circles.Post("/:id/request", s.RequestToJoinCircle)
	circles.Get("/:id/requests", s.GetCircleJoinRequests)
	circles.Post("/:id/invites", middleware.RateLimit(s.redis, 20, time.Minute, "invites"), s.InviteToCircle)
	circles.Get("/:id/invites", s.GetCircleInvites)
	circles.Delete("/:id/invites/:inviteId", s.RevokeInvite)
	circles.Get("/:id/lists", s.GetCircleLists)
	circles.Get("/:id/recommendations", s.GetCircleRecommendations)
	circles.Post("/:id/recommendations", s.RecommendToCircle)
	circles.Delete("/:id/recommendations/:recId", s.RemoveCircleRecommendation)
	circles.Get("/:id", s.GetCircle)
	circles.Put("/:id", s.UpdateCircle)
	circles.Delete("/:id", s.DeleteCircle)

	lists := api.Group("/lists")
	lists.Get("/", optionalAuth, s.GetAccessibleLists)
	lists.Post("/", authRequired, s.CreateList)
	lists.Get("/:id/items/:itemId/comments", optionalAuth, s.GetItemComments)
	lists.Post("/:id/items/:itemId/comments", authRequired, s.CreateItemComment)
	lists.Post("/:id/items", authRequired, s.AddListItem)
	lists.Put("/:id/items/:itemId", authRequired, s.UpdateListItem)
	lists.Delete("/:id/items/:itemId", authRequired, s.RemoveListItem)
	lists.Post("/:id/shares", authRequired, s.ShareList)
	lists.Get("/:id/shares", authRequired, s.GetListShares)
	lists.Delete("/:id/shares/:circleId", authRequired, s.UnshareList)
	lists.Post("/:id/copy", authRequired, s.CopyList)
	lists.Get("/:id", optionalAuth, s.GetList)
	lists.Put("/:id", authRequired, s.UpdateList)
	lists.Delete("/:id", authRequired, s.DeleteList)

	api.Get("/feed", optionalAuth, s.GetFeed)

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/:id/comments", optionalAuth, s.GetPostComments)
	posts.Post("/:id/comments", authRequired, s.CreatePostComment)
	posts.Put("/:id/comments/:commentId", authRequired, s.UpdatePostComment)
	posts.Delete("/:id/comments/:commentId", authRequired, s.DeletePostComment)
	posts.Get("/:id/likes", optionalAuth, s.GetPostLikes)
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Delete("/:id/like", authRequired, s.UnlikePost)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	saved := api.Group("/saved-restaurants", authRequired)
	saved.Post("/", s.SaveRestaurant)
	saved.Delete("/:restaurantId", s.UnsaveRestaurant)

	follow := api.Group("/follow", authRequired)
	// Specific routes before generic /:userId
	follow.Get("/suggestions", s.GetFollowSuggestions)
	follow.Get("/requests/pending", s.GetPendingFollowRequests)
	follow.Post("/requests/:requestId/respond", s.RespondToFollowRequest)
	follow.Get("/:userId/followers", s.GetFollowers)
	follow.Get("/:userId/following", s.GetFollowing)
	follow.Get("/:userId/status", s.GetFollowStatus)
	follow.Post("/:userId", s.FollowUser)
	follow.Delete("/:userId", s.UnfollowUser)

	api.Post("/ws/ticket", authRequired, s.IssueWSTicket)
	api.Get("/ws", s.WebSocketUpgrade(), s.WebsocketHandler())
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports 503 when the database is down and "degraded" when
// only redis is unavailable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	case redisStatus != "healthy":
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// newApp builds the Fiber app with middleware and routes installed.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Circles API",
		BodyLimit: int(s.imageService.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: "HTTP_ERROR"})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", slog.Any("error", err))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server and blocks until it stops listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		slog.Warn("notification relay unavailable", slog.Any("error", err))
	}
	s.scheduler.Start()

	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	s.scheduler.Stop(ctx)

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.Any("error", err))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down notification hub", slog.Any("error", err))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.Any("error", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.Any("error", rerr))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
