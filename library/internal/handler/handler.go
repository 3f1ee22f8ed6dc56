package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/pkg/auth"
	md "github.com/Astemirdum/library-system/pkg/middleware"
	"github.com/Astemirdum/library-system/pkg/validate"
	_ "github.com/Astemirdum/library-system/swagger"
)

type Handler struct {
	librarySvc LibraryService
	auth       auth.Config
	log        *zap.Logger
}

func New(librarySvc LibraryService, log *zap.Logger, authCfg auth.Config) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		auth:       authCfg,
		log:        log.Named("handler"),
	}
}

// @title Library API
// @version 1.0
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.Session(h.auth),
	)

	api.POST("/members", h.RegisterMember)
	api.GET("/members/:memberId/checkout-record", h.ViewCheckoutRecord)
	api.POST("/members/:memberId/checkouts", h.Checkout)

	api.POST("/books", h.AddBook)
	api.GET("/books/:isbn", h.GetBook)
	api.POST("/books/:isbn/copies", h.AddCopies)
	api.GET("/books/:isbn/overdue", h.OverdueCopies)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps service errors onto status codes.
func httpError(err error) error {
	var code int
	switch {
	case errors.Is(err, errs.ErrNoSession):
		code = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, errs.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
	}
	return echo.NewHTTPError(code, err.Error())
}

func memberIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("memberId"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "memberId is invalid")
	}
	return id, nil
}

func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// RegisterMember godoc
// @Summary register member
// @Tags members
// @Accept json
// @Produce json
// @Param input body model.RegisterMemberRequest true "member"
// @Success 201 {object} model.Member
// @Failure 400,401,403,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /members [post]
func (h *Handler) RegisterMember(c echo.Context) error {
	var req model.RegisterMemberRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	member, err := h.librarySvc.RegisterMember(c.Request().Context(), req.Name, req.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, member)
}

// ViewCheckoutRecord godoc
// @Summary member checkout record
// @Tags members
// @Produce json
// @Param memberId path int true "member id"
// @Success 200 {object} model.Member
// @Failure 400,401,403,404,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /members/{memberId}/checkout-record [get]
func (h *Handler) ViewCheckoutRecord(c echo.Context) error {
	memberID, err := memberIDParam(c)
	if err != nil {
		return err
	}
	member, err := h.librarySvc.ViewCheckoutRecord(c.Request().Context(), memberID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// Checkout godoc
// @Summary checkout a book copy
// @Tags members
// @Accept json
// @Produce json
// @Param memberId path int true "member id"
// @Param input body model.CheckoutRequest true "book"
// @Success 200 {object} model.Member
// @Failure 400,401,403,404,409,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /members/{memberId}/checkouts [post]
func (h *Handler) Checkout(c echo.Context) error {
	memberID, err := memberIDParam(c)
	if err != nil {
		return err
	}
	var req model.CheckoutRequest
	if err = bindValid(c, &req); err != nil {
		return err
	}
	member, err := h.librarySvc.Checkout(c.Request().Context(), memberID, req.ISBN)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// AddBook godoc
// @Summary add book
// @Tags books
// @Accept json
// @Produce json
// @Param input body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400,401,403,409,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /books [post]
func (h *Handler) AddBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	book := model.Book{
		ISBN:           req.ISBN,
		Title:          req.Title,
		Author:         req.Author,
		BorrowDuration: req.BorrowDuration,
	}
	book.AddCopies(req.Copies)

	added, err := h.librarySvc.AddBook(c.Request().Context(), book)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, added)
}

// GetBook godoc
// @Summary get book with copies
// @Tags books
// @Produce json
// @Param isbn path string true "isbn"
// @Success 200 {object} model.Book
// @Failure 401,403,404,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /books/{isbn} [get]
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.librarySvc.GetBook(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// AddCopies godoc
// @Summary add copies of a book
// @Tags books
// @Accept json
// @Produce json
// @Param isbn path string true "isbn"
// @Param input body model.AddCopiesRequest true "count"
// @Success 200 {object} model.Book
// @Failure 400,401,403,404,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /books/{isbn}/copies [post]
func (h *Handler) AddCopies(c echo.Context) error {
	var req model.AddCopiesRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.AddCopies(c.Request().Context(), c.Param("isbn"), req.Count)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// OverdueCopies godoc
// @Summary overdue copies of a book
// @Tags books
// @Produce json
// @Param isbn path string true "isbn"
// @Success 200 {array} model.BookCopy
// @Failure 401,403,404,500 {object} echo.HTTPError
// @Security BearerAuth
// @Router /books/{isbn}/overdue [get]
func (h *Handler) OverdueCopies(c echo.Context) error {
	copies, err := h.librarySvc.OverdueCopies(c.Request().Context(), c.Param("isbn"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, copies)
}
