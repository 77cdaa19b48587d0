package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"readnest/internal/handler"
	"readnest/internal/logging"
	authmw "readnest/internal/middleware"
	"readnest/internal/model"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Books    *handler.BookHandler
	BookLoan *handler.BookLoanHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, tokens authmw.TokenParser, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logging.Component("http")))
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	gate := authmw.JWT(tokens)
	adminOnly := authmw.RequireRole(model.RoleAdmin)
	memberOnly := authmw.RequireRole(model.RoleLibraryMember)

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh-token", h.Auth.RefreshToken)

	// Secured routes (require JWT authentication)
	secured := api.Group("", gate)
	secured.POST("/auth/logout", h.Auth.Logout)

	users := secured.Group("/users")
	users.GET("", h.Users.ListUsers, adminOnly)
	users.GET("/:id", h.Users.GetUser, authmw.SelfOrAdmin("id"))
	users.PUT("/:id", h.Users.UpdateUser, authmw.SelfOrAdmin("id"))
	users.DELETE("/:id", h.Users.DeleteUser, adminOnly)

	books := secured.Group("/books")
	books.GET("", h.Books.ListBooks)
	books.GET("/:id", h.Books.GetBook)
	books.POST("", h.Books.CreateBook, adminOnly)
	books.PUT("/:id", h.Books.UpdateBook, adminOnly)
	books.DELETE("/:id", h.Books.DeleteBook, adminOnly)

	loans := secured.Group("/book-loans")
	loans.GET("", h.BookLoan.ListLoans)
	loans.POST("", h.BookLoan.BorrowBook, memberOnly)
	loans.POST("/:id/return", h.BookLoan.ReturnBook, memberOnly)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
