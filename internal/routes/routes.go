package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/handlers"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/middleware"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the wired HTTP surface plus the pieces main needs at shutdown.
type App struct {
	Router     *gin.Engine
	Auth       *services.AuthService
	Dispatcher *services.Dispatcher
}

func SetupRouter(cfg *config.Config, db *gorm.DB, log *logger.Logger) *App {
	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"db_connected": ping(c.Request.Context(), db),
		})
	})

	// Initialize services
	notifier := services.FanoutNotifier{
		services.NewStoreNotifier(db),
		services.NewEmailNotifier(db, cfg, log.Named("email")),
	}
	dispatcher := services.NewDispatcher(notifier, cfg.NotifyTimeout, log.Named("notify"))
	conversations := services.NewStoreConversationService(db)

	authService := services.NewAuthService(db, cfg)
	rosterService := services.NewRosterService(db, dispatcher, log.Named("roster"))
	applicationService := services.NewApplicationService(db, dispatcher, log.Named("applications"))
	offerService := services.NewOfferService(applicationService)
	eoiService := services.NewEOIService(db, dispatcher, conversations, cfg.EOITTL, cfg.ConversationTimeout, log.Named("eoi"))
	opportunityService := services.NewOpportunityService(db, log.Named("opportunities"))
	documentService := services.NewDocumentService(cfg, applicationService, services.NewStorageService(cfg))
	notificationService := services.NewNotificationService(db)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	httpLog := log.Named("http")
	authHandler := handlers.NewAuthHandler(authService, httpLog)
	teamHandler := handlers.NewTeamHandler(rosterService, applicationService, httpLog)
	opportunityHandler := handlers.NewOpportunityHandler(opportunityService, applicationService, httpLog)
	applicationHandler := handlers.NewApplicationHandler(applicationService, httpLog)
	offerHandler := handlers.NewOfferHandler(offerService, documentService, httpLog)
	eoiHandler := handlers.NewEOIHandler(eoiService, httpLog)
	notificationHandler := handlers.NewNotificationHandler(notificationService, httpLog)
	adminHandler := handlers.NewAdminHandler(adminService, offerService, httpLog)

	requireAuth := middleware.AuthMiddleware(authService)

	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Team routes
		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.GetMyTeams)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.GET("/:id/applications", teamHandler.GetTeamApplications)
			teams.GET("/:id/leave", teamHandler.CanLeave)
			teams.POST("/:id/leave", teamHandler.LeaveTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.GET("/:id/members/:userId/removal", teamHandler.CanRemove)
			teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
			teams.PUT("/:id/members/:userId/lead", teamHandler.SetLead)
		}

		// Opportunity routes
		opportunities := api.Group("/opportunities")
		opportunities.Use(requireAuth)
		{
			opportunities.POST("", opportunityHandler.CreateOpportunity)
			opportunities.GET("", opportunityHandler.ListOpportunities)
			opportunities.GET("/:id", opportunityHandler.GetOpportunity)
			opportunities.POST("/:id/close", opportunityHandler.CloseOpportunity)
			opportunities.GET("/:id/applications", opportunityHandler.GetApplications)
		}

		// Application routes
		applications := api.Group("/applications")
		applications.Use(requireAuth)
		{
			applications.POST("", applicationHandler.SubmitApplication)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.POST("/:id/transition", applicationHandler.TransitionApplication)
			applications.PUT("/:id/notes", applicationHandler.UpdateNotes)

			// Offer routes
			applications.POST("/:id/offer", offerHandler.MakeOffer)
			applications.POST("/:id/offer/respond", offerHandler.RespondToOffer)
			applications.GET("/:id/offer/letter", offerHandler.DownloadOfferLetter)
		}

		// Expression of interest routes
		eoi := api.Group("/eoi")
		eoi.Use(requireAuth)
		{
			eoi.POST("", eoiHandler.CreateEOI)
			eoi.GET("", eoiHandler.ListEOIs)
			eoi.GET("/:id", eoiHandler.GetEOI)
			eoi.POST("/:id/respond", eoiHandler.RespondToEOI)
			eoi.POST("/:id/conversation", eoiHandler.RetryConversation)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.GET("/users", adminHandler.ListAllUsers)
			admin.POST("/offers/sweep", adminHandler.SweepExpiredOffers)
		}
	}

	return &App{Router: router, Auth: authService, Dispatcher: dispatcher}
}

// SeedAdminUser creates the configured admin account if it does not exist.
func SeedAdminUser(cfg *config.Config, authService *services.AuthService, log *logger.Logger) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	admin, created, err := authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin user created", "email", admin.Email)
	}
	return nil
}

func ping(ctx context.Context, db *gorm.DB) bool {
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}
