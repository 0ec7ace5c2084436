// Package router assembles the HTTP surface: middleware chain, public
// endpoints and the permission-guarded API groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/handler"
	"github.com/noah-isme/fms-portal-api/internal/middleware"
	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/repository"
	"github.com/noah-isme/fms-portal-api/internal/service"
	"github.com/noah-isme/fms-portal-api/internal/session"
	"github.com/noah-isme/fms-portal-api/pkg/config"
	"github.com/noah-isme/fms-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fms-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fms-portal-api/pkg/middleware/requestid"
)

// Handlers groups every endpoint handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Programmes   *handler.ProgrammeHandler
	BillTypes    *handler.BillTypeHandler
	Bills        *handler.BillHandler
	Payments     *handler.PaymentHandler
	FinancialAid *handler.FinancialAidHandler
	Students     *handler.StudentHandler
	Admins       *handler.AdminHandler
	Dashboards   *handler.DashboardHandler
	Exports      *handler.ExportHandler
	Metrics      *handler.MetricsHandler
}

// Deps carries the cross-cutting pieces the middleware chain needs.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Auth      *service.AuthService
	Sessions  *session.Store
	Users     *repository.UserRepository
	MetricsSv *service.MetricsService
}

// New builds the gin engine with all routes mounted.
func New(deps Deps, h Handlers) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.MetricsSv))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", h.Metrics.Prometheus)

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	// Public auth surface.
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/password/reset/request", h.Auth.RequestPasswordReset)
		auth.POST("/password/reset", h.Auth.ResetPassword)
	}

	// Signed document links carry their own authorization.
	api.GET("/documents/:token", h.FinancialAid.Document)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth, deps.Sessions))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	adminRoles := []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}

	programmes := secured.Group("/programmes")
	{
		programmes.GET("", h.Programmes.List)
		programmes.GET("/:id", h.Programmes.Get)

		manage := programmes.Group("")
		manage.Use(middleware.Access(adminRoles, models.PermProgrammeManagement))
		manage.POST("", h.Programmes.Create)
		manage.PATCH("/:id", h.Programmes.Update)
		manage.DELETE("/:id", h.Programmes.Delete)
	}

	billTypes := secured.Group("/bill-types")
	billTypes.Use(middleware.Access(adminRoles, models.PermFeeAndDuesManagement))
	{
		billTypes.GET("", h.BillTypes.List)
		billTypes.GET("/:id", h.BillTypes.Get)
		billTypes.POST("", h.BillTypes.Create)
		billTypes.PATCH("/:id", h.BillTypes.Update)
		billTypes.DELETE("/:id", h.BillTypes.Delete)
	}

	bills := secured.Group("/bills")
	bills.Use(middleware.Access(adminRoles, models.PermFeeAndDuesManagement))
	{
		bills.GET("", h.Bills.List)
		bills.GET("/:id", h.Bills.Get)

		mutate := bills.Group("")
		mutate.Use(middleware.Audit(deps.Users, models.AuditActionBillingChange, "bills"))
		mutate.POST("", h.Bills.Create)
		mutate.PATCH("/:id", h.Bills.Update)
		mutate.DELETE("/:id", h.Bills.Delete)
	}

	categories := secured.Group("/payment-category")
	categories.Use(middleware.Access(adminRoles, models.PermPaymentManagement))
	{
		categories.GET("", h.Payments.ListCategories)
		categories.GET("/:id", h.Payments.GetCategory)
		categories.POST("", h.Payments.CreateCategory)
		categories.PATCH("/:id", h.Payments.UpdateCategory)
		categories.DELETE("/:id", h.Payments.DeleteCategory)
	}

	payments := secured.Group("/payments")
	payments.Use(middleware.Access(adminRoles, models.PermTransactionManagement))
	{
		payments.GET("", h.Payments.List)
		payments.GET("/export", h.Exports.Payments)
		payments.GET("/:id", h.Payments.Get)
		payments.GET("/:id/receipt", h.Payments.Receipt)
	}

	transaction := secured.Group("/transaction")
	{
		transaction.POST("/initiate", middleware.RequireRoles(models.RoleStudent), h.Payments.Initiate)
		transaction.GET("/verify/:reference", h.Payments.Verify)
	}

	aidTypes := secured.Group("/financial-aid-types")
	{
		aidTypes.GET("", h.FinancialAid.ListTypes)
		aidTypes.GET("/:id", h.FinancialAid.GetType)

		manage := aidTypes.Group("")
		manage.Use(middleware.Access(adminRoles, models.PermFinancialAidManagement))
		manage.POST("", h.FinancialAid.CreateType)
		manage.PATCH("/:id", h.FinancialAid.UpdateType)
		manage.DELETE("/:id", h.FinancialAid.DeleteType)
	}

	aidDiscounts := secured.Group("/financial-aid-discounts")
	aidDiscounts.Use(middleware.Access(adminRoles, models.PermBillDiscountsManagement))
	{
		aidDiscounts.GET("", h.FinancialAid.ListDiscounts)
		aidDiscounts.GET("/:id", h.FinancialAid.GetDiscount)
		aidDiscounts.POST("", h.FinancialAid.CreateDiscount)
		aidDiscounts.PATCH("/:id", h.FinancialAid.UpdateDiscount)
		aidDiscounts.DELETE("/:id", h.FinancialAid.DeleteDiscount)
	}

	applications := secured.Group("/financial-aid-applications")
	{
		applications.POST("", middleware.RequireRoles(models.RoleStudent), h.FinancialAid.Apply)

		review := applications.Group("")
		review.Use(middleware.Access(adminRoles, models.PermFinancialAidManagement))
		review.GET("", h.FinancialAid.ListApplications)
		review.GET("/:id", h.FinancialAid.GetApplication)
		review.PATCH("/:id/decision", h.FinancialAid.Decide)
	}

	students := secured.Group("/students")
	students.Use(middleware.Access(adminRoles, models.PermStudentManagement))
	{
		students.GET("", h.Students.List)
		students.GET("/export", h.Exports.Students)
		students.GET("/:id", h.Students.Get)
		students.POST("", h.Students.Create)
		students.PATCH("/:id", h.Students.Update)
		students.DELETE("/:id", h.Students.Deactivate)
		students.GET("/:id/bills", h.Students.Bills)
		students.POST("/:id/bills", h.Students.AssignBill)
	}

	admins := secured.Group("/admins")
	admins.Use(middleware.Access(adminRoles, models.PermUserManagement))
	{
		admins.GET("", h.Admins.List)
		admins.POST("", h.Admins.Create)
		admins.PATCH("/:id", h.Admins.Update)
		admins.DELETE("/:id", h.Admins.Deactivate)
	}

	// Student self-service surface.
	student := secured.Group("/student")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/profile", h.Auth.Me)
		student.GET("/bills", h.Students.MyBills)
		student.GET("/payments", h.Students.MyPayments)
		student.GET("/financial-aid", h.FinancialAid.MyAid)
		student.GET("/stats/dashboard", h.Dashboards.Student)
	}

	adminStats := secured.Group("/admin/stats")
	adminStats.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		adminStats.GET("/dashboard", h.Dashboards.Admin)
		adminStats.GET("/system", h.Metrics.Snapshot)
	}

	return r
}
