// Package daemon exposes the localhost control API the CLI talks to.
package daemon

import (
	"context"
	"errors"
	"espansync/logger"
	"espansync/repository"
	"espansync/syncer"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo      *echo.Echo
	manager   *syncer.Manager
	scheduler *syncer.Scheduler
	histRepo  *repository.HistoryRepository
	port      int
	startedAt time.Time
	stopCh    chan struct{}
}

func NewServer(manager *syncer.Manager, scheduler *syncer.Scheduler, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		manager:   manager,
		scheduler: scheduler,
		histRepo:  repository.NewHistoryRepository(),
		port:      port,
		startedAt: time.Now(),
		stopCh:    make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/sync", s.handleSync)
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/runs", s.handleRuns)
	s.echo.POST("/stop", s.handleStop)
}

func (s *Server) Start() {
	go func() {
		addr := "127.0.0.1:" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.scheduler.Stop()
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	status := Status{
		Syncing:   s.manager.IsSyncing(),
		Connected: s.manager.TestConnection(c.Request().Context()),
		StartedAt: s.startedAt,
		Scheduler: s.scheduler.Snapshot(),
	}

	if last := s.manager.LastSync(); !last.IsZero() {
		status.LastSync = &last
	}

	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleSync(c echo.Context) error {
	s.scheduler.TriggerNow("api")
	return c.JSON(http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	changes, err := s.histRepo.GetRecentChanges(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, changes)
}

func (s *Server) handleRuns(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	runs, err := s.histRepo.GetRecentRuns(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}
