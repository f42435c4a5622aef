package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-backend/internal/handlers"
	"social-backend/internal/services"
	"social-backend/internal/store"
	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Init store
	uri := utils.GetEnv("MONGO_DB_URL", "mongodb://localhost:27017")
	dbName := utils.GetEnv("MONGO_DB_NAME", "socialdb")

	connectTimeout := time.Duration(utils.GetEnvInt("DB_CONNECT_TIMEOUT", 10)) * time.Second
	connectCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	st, err := store.Connect(connectCtx, uri, dbName)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close(context.Background())

	// Services
	userService := services.NewUserService(st)
	authService := services.NewAuthService(st, userService)
	postService := services.NewPostService(st)
	feedService := services.NewFeedService(st, userService)

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: utils.GetEnv("CLIENT_APP_URL", "*"),
		AllowHeaders: "Content-Type, Authorization",
	}))

	// Ensure upload dir exists and serve uploaded files
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Printf("Warning: failed to create upload dir: %v", err)
	}
	app.Static("/uploads", uploadDir)

	// Routes
	api := app.Group("/api")

	// Public Routes
	api.Post("/auth/login", handlers.LoginHandler(authService))
	api.Post("/auth/refresh", handlers.RefreshHandler(authService))
	api.Post("/users", handlers.RegisterUserHandler(userService))

	// Protected Routes
	users := api.Group("/users")
	users.Use(handlers.AuthMiddleware)

	users.Get("/", handlers.GetUsersHandler(userService))
	users.Get("/search/:searchQuery", handlers.SearchUsersHandler(userService))
	users.Get("/:userId", handlers.GetUserHandler(userService))
	users.Put("/:userId", handlers.UpdateUserHandler(userService))
	users.Get("/:userId/followers", handlers.GetFollowersHandler(userService))
	users.Get("/:userId/followings", handlers.GetFollowingsHandler(userService))
	users.Put("/:userId/follow", handlers.FollowHandler(userService))
	users.Put("/:userId/unfollow", handlers.UnfollowHandler(userService))

	posts := users.Group("/:userId/posts")
	posts.Get("/", handlers.GetUserPostsHandler(feedService))
	posts.Post("/", handlers.CreatePostHandler(postService, userService))
	posts.Get("/newsfeed", handlers.NewsfeedHandler(feedService))
	posts.Get("/:postId", handlers.GetPostHandler(feedService))
	posts.Delete("/:postId", handlers.DeletePostHandler(postService))
	posts.Post("/:postId/share", handlers.SharePostHandler(postService, userService))
	posts.Post("/:postId/like", handlers.LikePostHandler(postService))
	posts.Post("/:postId/unlike", handlers.UnlikePostHandler(postService))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. AuthMiddleware checks token.
	// WSUpgradeMiddleware checks if it's a WS request.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.AuthMiddleware)
	app.Get("/ws", handlers.WebSocketHandler())

	// Start Server
	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	log.Println("Server shutdown complete")
}
