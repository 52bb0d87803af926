package router

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"digithesis/internal/auth"
	"digithesis/internal/config"
	"digithesis/internal/handler"
	"digithesis/internal/validation"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Thesis *handler.ThesisHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	tokens auth.TokenStoreInterface,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			auth.TokenHeader,
		},
	}))
	// Multipart overhead on top of the largest accepted PDF.
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: bodyLimit(cfg.Storage.MaxUploadBytes()),
	}))

	e.Validator = validation.New()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := auth.Middleware(jwtService, tokens, false)
	optionalAuth := auth.Middleware(jwtService, tokens, true)

	api := e.Group("/api")

	// Public routes
	api.POST("/register", h.Auth.Register)
	api.POST("/users", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/refresh", h.Auth.Refresh)
	api.GET("/theses/public", h.Thesis.ListPublic)

	// Anonymous or authenticated
	api.GET("/theses/search", h.Thesis.Search, optionalAuth)
	api.GET("/theses/:id", h.Thesis.Get, optionalAuth)
	api.GET("/theses/:id/file", h.Thesis.Download, optionalAuth)

	secured := api.Group("", requireAuth)

	secured.POST("/logout", h.Auth.Logout)
	secured.GET("/me", h.User.Me)

	// User administration
	secured.GET("/users/all", h.User.ListUsers)
	secured.PUT("/users/role/:id", h.User.ChangeRole)

	// Theses
	secured.POST("/theses/upload", h.Thesis.Upload)
	secured.GET("/theses", h.Thesis.ListOwn)
	secured.GET("/theses/pending", h.Thesis.ListPending)
	secured.PUT("/theses/approve/:id", h.Thesis.Approve)
	secured.PUT("/theses/reject/:id", h.Thesis.Reject)
	secured.POST("/theses/check-plagiarism/:id", h.Thesis.CheckPlagiarism)
	secured.POST("/theses/check-grammar/:id", h.Thesis.CheckGrammar)
	secured.DELETE("/theses/:id", h.Thesis.Delete)
}

func bodyLimit(maxUpload int64) string {
	mb := maxUpload/(1<<20) + 1
	if mb < 2 {
		mb = 2
	}
	return strconv.FormatInt(mb, 10) + "M"
}
