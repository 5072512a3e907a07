package routes

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/handlers"
	"github.com/mindspend/mindspend-api/middleware"
	"github.com/mindspend/mindspend-api/utils"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Tokens   *utils.TokenManager
	Auth     *handlers.AuthHandler
	Budgets  *handlers.BudgetHandler
	Expenses *handlers.ExpenseHandler
	Stats    *handlers.StatsHandler
	WS       *handlers.WSHandler
}

type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the engine with the global middleware and every route.
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(opts.AllowedOrigins) > 0 {
		log.Printf("🌍 CORS: Allowing origins:")
		for _, origin := range opts.AllowedOrigins {
			log.Printf("   - %s", origin)
		}
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           86400,
		}))
	}

	router.Use(middleware.RequestLogger())
	if opts.RateLimitRPS > 0 {
		router.Use(middleware.RateLimiter(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	router.GET("/health", h.Stats.Health)

	api := router.Group("/api")
	{
		SetupPublicRoutes(api, h)
		api.GET("/ws/alerts", middleware.QueryTokenMiddleware(h.Tokens), h.WS.HandleWS)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(h.Tokens))
		{
			SetupAccountRoutes(protected, h.Auth)
			SetupBudgetRoutes(protected, h.Budgets)
			SetupExpenseRoutes(protected, h.Expenses)
		}
	}

	return router
}

// SetupPublicRoutes sets up registration, login and the public counters.
func SetupPublicRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/auth/register", h.Auth.Register)
	rg.POST("/auth/login", h.Auth.Login)
	rg.GET("/stats", h.Stats.GetStats)
}

// SetupAccountRoutes sets up the caller's profile and 2FA routes.
func SetupAccountRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.GET("/auth/me", h.Me)
	rg.POST("/auth/2fa/setup", h.SetupTOTP)
	rg.POST("/auth/2fa/verify", h.VerifyTOTP)
	rg.POST("/auth/2fa/disable", h.DisableTOTP)
}

func SetupBudgetRoutes(rg *gin.RouterGroup, h *handlers.BudgetHandler) {
	rg.GET("/budget", h.GetBudget)
	rg.GET("/budget/status", h.GetStatus)
	rg.POST("/set-budget", h.SetBudget)
}

func SetupExpenseRoutes(rg *gin.RouterGroup, h *handlers.ExpenseHandler) {
	rg.GET("/expenses", h.ListExpenses)
	rg.POST("/expenses", h.AddExpense)
	rg.POST("/add-expense", h.AddExpense)
	rg.DELETE("/expenses/:id", h.DeleteExpense)
	rg.GET("/expenses/alerts", h.GetAlerts)
	rg.GET("/expenses/summary", h.GetSummary)
}
