package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/models"
	"github.com/simts-edu/casesim-service/internal/services"
	"github.com/simts-edu/casesim-service/internal/utils"
)

type HandlerManager struct {
	auth       services.AuthService
	health     *HealthHandler
	authH      *AuthHandler
	caseH      *CaseHandler
	sessionH   *SessionHandler
	collection *CollectionHandler
	admin      *AdminHandler
}

type RouterDeps struct {
	DB         *gorm.DB
	Auth       services.AuthService
	Generation services.GenerationService
	Cases      services.CaseService
	Sessions   services.SessionService
	Collection services.CollectionService
	Stats      services.StatisticsService
	Export     services.ExportService
	Logger     utils.Logger
}

func NewHandlerManager(deps RouterDeps) *HandlerManager {
	return &HandlerManager{
		auth:       deps.Auth,
		health:     NewHealthHandler(deps.DB, deps.Generation.EngineName() != "", deps.Logger),
		authH:      NewAuthHandler(deps.Auth, deps.Logger),
		caseH:      NewCaseHandler(deps.Generation, deps.Cases, deps.Logger),
		sessionH:   NewSessionHandler(deps.Sessions, deps.Logger),
		collection: NewCollectionHandler(deps.Collection, deps.Logger),
		admin:      NewAdminHandler(deps.Stats, deps.Export, deps.Logger),
	}
}

// SetupRoutes registers every API route on the router
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", hm.health.Check)

		auth := api.Group("/auth")
		{
			auth.POST("/login", hm.authH.StudentLogin)
			auth.POST("/teacher-login", hm.authH.TeacherLogin)
			auth.POST("/register", hm.authH.RegisterStudent)
		}

		authed := api.Group("")
		authed.Use(AuthMiddleware(hm.auth))
		{
			authed.POST("/simulate", hm.caseH.Simulate)

			cases := authed.Group("/cases")
			{
				cases.GET("", hm.caseH.ListCases)
				cases.GET("/:id", hm.caseH.GetCase)
				cases.POST("", RequireRole(models.RoleTeacher), hm.caseH.SaveCase)
				cases.PUT("/:id", RequireRole(models.RoleTeacher), hm.caseH.UpdateCase)
				cases.DELETE("/:id", RequireRole(models.RoleTeacher), hm.caseH.DeleteCase)
			}

			answers := authed.Group("/answers")
			{
				answers.POST("", RequireRole(models.RoleStudent), hm.sessionH.SubmitAnswers)
				answers.GET("", hm.sessionH.ListSessions)
				answers.GET("/:id", hm.sessionH.GetSession)
				answers.PUT("/:id/feedback", RequireRole(models.RoleTeacher), hm.sessionH.AttachFeedback)
			}

			collections := authed.Group("/collections", RequireRole(models.RoleTeacher))
			{
				collections.POST("", hm.collection.CreateCollection)
				collections.GET("", hm.collection.ListCollections)
				collections.GET("/:id", hm.collection.GetCollection)
				collections.PUT("/:id", hm.collection.UpdateCollection)
				collections.DELETE("/:id", hm.collection.DeleteCollection)
				collections.POST("/:id/cases/:case_id", hm.collection.AddCase)
				collections.DELETE("/:id/cases/:case_id", hm.collection.RemoveCase)
			}

			admin := authed.Group("/admin", RequireRole(models.RoleTeacher))
			{
				admin.GET("/statistics", hm.admin.GetStatistics)
				admin.GET("/export", hm.admin.ExportCases)
			}
		}
	}
}
