// Package api exposes the attendance and timesheet operations over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/services"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

// Services bundles the core services the API serves
type Services struct {
	Tracker  *services.AttendanceTracker
	Accrual  *services.AccrualEngine
	Ledger   *services.CapacityLedger
	Registry *services.VolunteerRegistry
	Admins   db.AdminStore
}

// Server is the HTTP front end
type Server struct {
	svc      Services
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates a server. gatherer backs /metrics.
func NewServer(svc Services, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{svc: svc, gatherer: gatherer, logger: logger}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger, "/healthz", "/metrics"))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", adminAuth(s.svc.Admins, s.logger))

	v1.POST("/volunteers", s.registerVolunteer)
	v1.GET("/volunteers", s.listVolunteers)
	v1.GET("/volunteers/:id", s.getVolunteer)
	v1.POST("/volunteers/:id/deactivate", s.deactivateVolunteer)

	v1.POST("/events", s.createEvent)
	v1.GET("/events", s.listEvents)
	v1.GET("/events/:id", s.getEvent)
	v1.PUT("/events/:id", s.updateEvent)
	v1.DELETE("/events/:id", s.deleteEvent)

	v1.POST("/attendance/checkin", s.checkIn)
	v1.POST("/attendance/:id/checkout", s.checkOut)
	v1.PUT("/attendance/:id/status", s.setAttendanceStatus)
	v1.PUT("/attendance/:id", s.updateAttendance)
	v1.DELETE("/attendance/:id", s.deleteAttendance)
	v1.GET("/attendance", s.listAttendance)
	v1.GET("/attendance/:id", s.getAttendance)

	v1.POST("/timesheets/generate", s.generateTimesheet)
	v1.POST("/timesheets", s.submitTimesheet)
	v1.POST("/timesheets/event", s.submitEventTimesheet)
	v1.GET("/timesheets", s.listTimesheets)
	v1.GET("/timesheets/:id", s.getTimesheet)
	v1.POST("/timesheets/:id/approve", s.approveTimesheet)
	v1.POST("/timesheets/:id/reject", s.rejectTimesheet)
	v1.DELETE("/timesheets/:id", s.deleteTimesheet)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
