// ABOUTME: Web UI server with embedded templates
// ABOUTME: Dashboard, contact and company pages, and the deal pipeline board at localhost:8080
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/middleware"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageFiles = []string{
	"dashboard.html",
	"contacts.html",
	"contact.html",
	"contact_form.html",
	"companies.html",
	"company.html",
	"company_form.html",
	"deals.html",
	"deal_form.html",
	"graphs.html",
}

type Server struct {
	svc    *service.Services
	logger *zap.Logger
	echo   *echo.Echo
	pages  map[string]*template.Template
	now    func() time.Time
}

func NewServer(svc *service.Services, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"currency":   pipeline.FormatCurrency,
		"stageLabel": models.StageLabel,
		"isStage":    models.IsValidStage,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format(forms.DateLayout)
		},
		"orDash": func(s string) string {
			if s == "" {
				return "-"
			}
			return s
		},
		"join": strings.Join,
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	s := &Server{
		svc:    svc,
		logger: logger,
		echo:   echo.New(),
		pages:  pages,
		now:    time.Now,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Renderer = s
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logger(logger, "web"))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/", s.handleDashboard)
	e.GET("/graphs", s.handleGraphs)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/contacts", s.handleContacts)
	e.GET("/contacts/new", s.handleNewContact)
	e.POST("/contacts", s.handleCreateContact)
	e.GET("/contacts/:id", s.handleContact)
	e.GET("/contacts/:id/edit", s.handleEditContact)
	e.POST("/contacts/:id", s.handleUpdateContact)
	e.POST("/contacts/:id/delete", s.handleDeleteContact)

	e.GET("/companies", s.handleCompanies)
	e.GET("/companies/new", s.handleNewCompany)
	e.POST("/companies", s.handleCreateCompany)
	e.GET("/companies/:id", s.handleCompany)
	e.GET("/companies/:id/edit", s.handleEditCompany)
	e.POST("/companies/:id", s.handleUpdateCompany)
	e.POST("/companies/:id/delete", s.handleDeleteCompany)

	e.GET("/deals", s.handleBoard)
	e.GET("/deals/new", s.handleNewDeal)
	e.POST("/deals", s.handleCreateDeal)
	e.GET("/deals/:id/edit", s.handleEditDeal)
	e.POST("/deals/:id", s.handleUpdateDeal)
	e.POST("/deals/:id/move", s.handleMoveDeal)
	e.POST("/deals/:id/delete", s.handleDeleteDeal)

	e.POST("/activities", s.handleLogActivity)
	e.POST("/activities/:id/delete", s.handleDeleteActivity)
}

// ServeHTTP lets the server be tested with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("web UI listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Render implements echo.Renderer. name is the page file; every page is
// wrapped in the shared layout.
func (s *Server) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// render shows a page together with any pending flash messages plus extra.
func (s *Server) render(c echo.Context, status int, name string, data map[string]interface{}, extra ...notify.Notification) error {
	flash := append(takeFlash(c), extra...)
	data["Flash"] = flash
	if err := c.Render(status, name, data); err != nil {
		s.logger.Error("template error", zap.String("page", name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return nil
}

// redirect stores notes for the next page and sends the browser to path.
func (s *Server) redirect(c echo.Context, path string, notes []notify.Notification) error {
	if len(notes) > 0 {
		setFlash(c, notes)
	}
	return c.Redirect(http.StatusSeeOther, path)
}

// reported turns a result into notifications and whether it succeeded.
func reported[T any](res service.Result[T], action, success string) ([]notify.Notification, bool) {
	collector := &notify.Collector{}
	ok := notify.Report(collector, res, action, success)
	return collector.Drain(), ok
}

func invalid(action string, failures []service.Failure) notify.Notification {
	return notify.Describe(action, service.ErrInvalid, failures)
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// bind decodes a posted form into T.
func bind[T any](c echo.Context, form T) (T, error) {
	if err := c.Bind(&form); err != nil {
		return form, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	return form, nil
}
