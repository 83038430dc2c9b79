package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-manager/bookui/internal/errs"
	"github.com/Astemirdum/book-manager/bookui/internal/model"
	"github.com/Astemirdum/book-manager/bookui/internal/session"
	"github.com/Astemirdum/book-manager/bookui/internal/state"
	md "github.com/Astemirdum/book-manager/pkg/middleware"
	"github.com/Astemirdum/book-manager/pkg/validate"
)

const sessionKey = "bookui.session"

type Handler struct {
	store *session.Store
	log   *zap.Logger
}

func New(store *session.Store, log *zap.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		uiRPS   = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
	}))
	e.Renderer = NewRenderer()
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	ui := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(uiRPS),
		h.withSession,
	)
	ui.GET("/", h.ListBooks)
	ui.GET("/add", h.AddBookForm)
	ui.POST("/add", h.AddBook)
	ui.POST("/input", h.Input)

	ui.POST("/books/:id/edit", h.StartEdit)
	ui.POST("/edit", h.UpdateBook)
	ui.POST("/edit/close", h.CloseModal)

	ui.GET("/books/:id/delete", h.ConfirmDelete)
	ui.POST("/books/:id/delete", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// withSession binds the browser's UI state to the request. Every page load fetches the list
// again; form posts only fetch when the session has never loaded it.
func (h *Handler) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id string
		if ck, err := c.Cookie(session.CookieName); err == nil {
			id = ck.Value
		}
		sess, created := h.store.Get(id)
		if created {
			c.SetCookie(&http.Cookie{
				Name:     session.CookieName,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		// a failed load is logged by the session and keeps the list it had
		if c.Request().Method == http.MethodGet {
			_ = sess.Refresh(c.Request().Context())
		} else {
			_ = sess.Mount(c.Request().Context())
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

func sessionFrom(c echo.Context) *state.Session {
	return c.Get(sessionKey).(*state.Session)
}

func (h *Handler) ListBooks(c echo.Context) error {
	return c.Render(http.StatusOK, "list", page{View: sessionFrom(c).View()})
}

func (h *Handler) AddBookForm(c echo.Context) error {
	return c.Render(http.StatusOK, "add", page{View: sessionFrom(c).View()})
}

func (h *Handler) AddBook(c echo.Context) error {
	sess := sessionFrom(c)
	if err := applyForm(c, sess.SetDraftField); err != nil {
		return err
	}
	if err := sess.AddBook(c.Request().Context()); err != nil {
		if errors.Is(err, errs.ErrIncompleteDraft) {
			return c.Render(http.StatusUnprocessableEntity, "add", page{
				View:  sess.View(),
				Alert: state.FillAllFieldsMessage,
			})
		}
	}
	return c.Redirect(http.StatusSeeOther, "/add")
}

// Input is the shared change handler for a single control.
func (h *Handler) Input(c echo.Context) error {
	var req model.InputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := sessionFrom(c).SetField(req.Name, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StartEdit(c echo.Context) error {
	if err := sessionFrom(c).StartEdit(model.NewID(c.Param("id"))); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) UpdateBook(c echo.Context) error {
	sess := sessionFrom(c)
	if !sess.View().ModalOpen {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := applyForm(c, sess.SetEditingField); err != nil {
		return err
	}
	// failures are logged by the session; the modal stays open with the edits
	_ = sess.UpdateBook(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) CloseModal(c echo.Context) error {
	sessionFrom(c).CloseModal()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) ConfirmDelete(c echo.Context) error {
	sess := sessionFrom(c)
	book, err := sess.Book(model.NewID(c.Param("id")))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Render(http.StatusOK, "confirm", page{
		View:   sess.View(),
		Prompt: state.ConfirmDeletePrompt,
		Book:   book,
	})
}

func (h *Handler) DeleteBook(c echo.Context) error {
	confirm := state.ConfirmFunc(func(string) bool {
		return c.FormValue("confirm") == "yes"
	})
	err := sessionFrom(c).DeleteBook(c.Request().Context(), model.NewID(c.Param("id")), confirm)
	if errors.Is(err, errs.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// applyForm feeds every submitted control to set, the draft or the working copy setter
// of the form the controls belong to.
func applyForm(c echo.Context, set func(name, value string) error) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, name := range model.Fields {
		values, ok := form[name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := set(name, values[0]); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return nil
}
