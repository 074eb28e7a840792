// ABOUTME: Echo HTTP server exposing any record Client over the table protocol
// ABOUTME: Mirrors the routes HTTPClient calls, plus health and metrics endpoints
package records

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/harperreed/dealboard/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves a backend Client over HTTP.
type Server struct {
	backend Client
	apiKey  string
	logger  *zap.Logger
	echo    *echo.Echo
}

// NewServer builds the HTTP surface for backend. An empty apiKey disables auth.
func NewServer(backend Client, apiKey string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		backend: backend,
		apiKey:  apiKey,
		logger:  logger,
		echo:    echo.New(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logger(logger, "records"))

	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	tables := s.echo.Group("/tables", s.requireKey)
	tables.POST("/:table/fetch", s.handleFetch)
	tables.POST("/:table/records/:id", s.handleGet)
	tables.POST("/:table/records", s.handleCreate)
	tables.PATCH("/:table/records", s.handleUpdate)
	tables.DELETE("/:table/records", s.handleDelete)
	return s
}

// ServeHTTP lets the server be mounted or tested with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("record store listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requireKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.apiKey == "" {
			return next(c)
		}
		token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
		}
		return next(c)
	}
}

func decodeBody(c echo.Context, dst any) error {
	err := json.NewDecoder(c.Request().Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	return nil
}

func (s *Server) backendError(c echo.Context, op string, err error) error {
	s.logger.Error("backend request failed",
		zap.String("operation", op),
		zap.String("table", c.Param("table")),
		zap.Error(err))
	return echo.NewHTTPError(http.StatusBadGateway, "backend unavailable")
}

func (s *Server) handleFetch(c echo.Context) error {
	var q Query
	if err := decodeBody(c, &q); err != nil {
		return err
	}
	resp, err := s.backend.Fetch(c.Request().Context(), c.Param("table"), q)
	if err != nil {
		return s.backendError(c, "fetch", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGet(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "record id must be an integer")
	}
	var q Query
	if err := decodeBody(c, &q); err != nil {
		return err
	}
	resp, err := s.backend.GetByID(c.Request().Context(), c.Param("table"), id, q)
	if err != nil {
		return s.backendError(c, "get", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreate(c echo.Context) error {
	var req WriteRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	resp, err := s.backend.Create(c.Request().Context(), c.Param("table"), req)
	if err != nil {
		return s.backendError(c, "create", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdate(c echo.Context) error {
	var req WriteRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	resp, err := s.backend.Update(c.Request().Context(), c.Param("table"), req)
	if err != nil {
		return s.backendError(c, "update", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDelete(c echo.Context) error {
	var req DeleteRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	resp, err := s.backend.Delete(c.Request().Context(), c.Param("table"), req)
	if err != nil {
		return s.backendError(c, "delete", err)
	}
	return c.JSON(http.StatusOK, resp)
}
