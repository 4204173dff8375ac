package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"conference-api/config"
	"conference-api/middleware"
	"conference-api/routes"
	"conference-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router)

	// Start the email dispatch worker unless it runs as a separate process
	// (EMAIL_DISPATCH_DISABLED=1 with the cmd/email-dispatch binary).
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if os.Getenv("EMAIL_DISPATCH_DISABLED") != "1" {
		interval := 30 * time.Second
		if secs, err := strconv.Atoi(os.Getenv("EMAIL_DISPATCH_INTERVAL_SECONDS")); err == nil && secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
		job := services.NewEmailDispatchJob(nil)
		go job.Run(ctx, interval)
		log.Printf("Email dispatch worker started (interval %s)", interval)
	}

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
