package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/huddle-dev/huddle/internal/handlers"
	"github.com/huddle-dev/huddle/internal/middleware"
	"github.com/huddle-dev/huddle/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.ProjectFeed)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.PATCH("", handlers.UpdateUser)
			users.DELETE("", handlers.DeleteUser)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)

			projects.POST("/:project_id/invites", handlers.InviteToProject)
			projects.POST("/:project_id/invites/accept", handlers.AcceptInvite)
			projects.POST("/:project_id/invites/decline", handlers.DeclineInvite)
			projects.DELETE("/:project_id/members", handlers.LeaveProject)
		}

		updates := api.Group("/updates", middleware.AuthMiddleware())
		{
			updates.GET("", handlers.ListUpdates)
			updates.POST("", handlers.CreateUpdate)
			updates.PATCH("/:update_id", handlers.EditUpdate)
			updates.DELETE("/:update_id", handlers.DeleteUpdate)
		}

		thanks := api.Group("/thanks", middleware.AuthMiddleware())
		{
			thanks.GET("/:update_id", handlers.ListThanks)
			thanks.POST("/:update_id", handlers.CreateThanks)
			thanks.DELETE("/:update_id", handlers.DeleteThanks)
		}

		eyeswanted := api.Group("/eyeswanted", middleware.AuthMiddleware())
		{
			eyeswanted.GET("", handlers.ListEyesWanted)
			eyeswanted.DELETE("/:update_id", handlers.DismissEyesWanted)
		}
	}

	return r
}
