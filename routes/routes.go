package routes

import (
	"conference-api/controllers"
	"conference-api/middleware"
	"conference-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Conference API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			protected.GET("/notifications", controllers.GetNotifications)
			protected.PUT("/notifications/:id/read", controllers.MarkNotificationRead)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)

				// Speakers create, submit and withdraw their own proposals
				submissions.POST("", middleware.RequireRole(models.RoleSpeaker), controllers.CreateSubmission)
				submissions.POST("/:id/submit", middleware.RequireRole(models.RoleSpeaker), controllers.SubmitSubmission)
				submissions.POST("/:id/withdraw", middleware.RequireRole(models.RoleSpeaker), controllers.WithdrawSubmission)

				// Reviewers and committee score submissions
				submissions.PUT("/:id/review", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.UpsertReview)
				submissions.GET("/:id/reviews", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.GetReviews)
				submissions.GET("/:id/scores", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.GetAggregateScores)

				// Committee-only pipeline and decision workflow
				submissions.PUT("/:id/status", middleware.RequireRole(models.RoleAdmin), controllers.SetSubmissionStatus)
				submissions.GET("/:id/status-history", middleware.RequireRole(models.RoleAdmin), controllers.GetStatusHistory)
				submissions.POST("/:id/decision", middleware.RequireRole(models.RoleAdmin), controllers.Decide)
				submissions.GET("/:id/decision", middleware.RequireRole(models.RoleAdmin), controllers.GetDecisionAndEmails)
				submissions.GET("/:id/decision-history", middleware.RequireRole(models.RoleAdmin), controllers.GetDecisionHistory)
				submissions.POST("/:id/emails", middleware.RequireRole(models.RoleAdmin), controllers.ScheduleEmail)
			}

			// Bulk pipeline updates
			protected.PUT("/submissions-status", middleware.RequireRole(models.RoleAdmin), controllers.BulkSetSubmissionStatus)

			// Scheduled email overrides
			emails := protected.Group("/scheduled-emails")
			emails.Use(middleware.RequireRole(models.RoleAdmin))
			{
				emails.POST("/:email_id/cancel", controllers.CancelScheduledEmail)
				emails.POST("/:email_id/send-now", controllers.SendScheduledEmailNow)
			}
		}
	}
}
