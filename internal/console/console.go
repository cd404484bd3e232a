package console

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/userdir/userdir/internal/activity"
	"github.com/userdir/userdir/internal/config"
	"github.com/userdir/userdir/internal/users"
)

//go:embed templates/*
var templateFiles embed.FS

// ConsoleService serves the user directory page and its JSON API
type ConsoleService struct {
	UserService users.UserService
	Activity    *activity.Recorder
	Logger      *zap.Logger
	Config      *config.Config

	page *template.Template
}

// NewConsoleService creates a new console service
func NewConsoleService(
	userService users.UserService,
	recorder *activity.Recorder,
	logger *zap.Logger,
	cfg *config.Config,
) (*ConsoleService, error) {
	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &ConsoleService{
		UserService: userService,
		Activity:    recorder,
		Logger:      logger,
		Config:      cfg,
		page:        page,
	}, nil
}

// SetupRoutes sets up the page routes and the JSON API
func (cs *ConsoleService) SetupRoutes(router *gin.Engine) {
	router.GET("/", cs.servePage)
	router.POST("/users", cs.submitForm)
	router.POST("/users/:id/edit", cs.startEdit)
	router.POST("/users/:id/delete", cs.deleteUser)
	router.POST("/form/cancel", cs.cancelEdit)
	router.POST("/refresh", cs.refresh)

	api := router.Group("/api/v1")
	api.Use(APIKeyMiddleware(cs.Config.Common.Auth.APIKey, cs.Logger))
	{
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("", cs.listUsers)
			userRoutes.GET("/:id", cs.getUser)
			userRoutes.POST("", cs.createUser)
			userRoutes.PUT("/:id", cs.updateUser)
			userRoutes.DELETE("/:id", cs.removeUser)
		}

		form := api.Group("/form")
		{
			form.GET("", cs.getForm)
			form.PATCH("", cs.changeForm)
			form.DELETE("", cs.resetForm)
			form.POST("/edit/:id", cs.editForm)
			form.POST("/submit", cs.submitDraft)
		}

		api.GET("/activity", cs.listActivity)
	}
}

// servePage renders the form and the list of users
func (cs *ConsoleService) servePage(c *gin.Context) {
	data := cs.buildPage(c)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := cs.page.Execute(c.Writer, data); err != nil {
		cs.Logger.Error("Failed to execute page template", zap.Error(err))
		c.String(http.StatusInternalServerError, "Execution Error: "+err.Error())
	}
}

// submitForm applies the posted fields to the draft and submits it
func (cs *ConsoleService) submitForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}

	values := make(map[string]string, len(c.Request.PostForm))
	for name, posted := range c.Request.PostForm {
		if strings.HasPrefix(name, "_") || len(posted) == 0 {
			continue
		}
		values[name] = posted[0]
	}

	if err := cs.UserService.ChangeFields(values); err != nil {
		cs.Logger.Error("Rejected form field", zap.Error(err))
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	// failures are recorded by the activity log and shown on the page
	if _, err := cs.UserService.Submit(c.Request.Context()); err != nil {
		cs.Logger.Warn("Form submission failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (cs *ConsoleService) startEdit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := cs.UserService.StartEdit(id); err != nil {
		cs.Logger.Warn("Cannot edit user", zap.Int("id", id), zap.Error(err))
		c.String(statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (cs *ConsoleService) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := cs.UserService.Remove(c.Request.Context(), id); err != nil {
		cs.Logger.Warn("Delete from page failed", zap.Int("id", id), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (cs *ConsoleService) cancelEdit(c *gin.Context) {
	cs.UserService.CancelEdit()
	c.Redirect(http.StatusSeeOther, "/")
}

func (cs *ConsoleService) refresh(c *gin.Context) {
	if _, err := cs.UserService.Refresh(c.Request.Context()); err != nil {
		cs.Logger.Warn("Refresh from page failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// statusFor maps directory errors to HTTP statuses
func statusFor(err error) int {
	var remoteErr *users.RemoteError
	switch {
	case users.IsInvalidPath(err):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrRecordNotLoaded), users.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
