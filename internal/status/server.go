// Package status serves health, last-sweep and Prometheus endpoints over HTTP.
package status

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"voice-sweeper/internal/sweep"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sweeper is the read-only view of the sweeper the server reports on.
type Sweeper interface {
	Target() sweep.Target
	Running() bool
}

// History reads stored sweep reports.
type History interface {
	LastSweep(guildID string) (*sweep.Report, error)
	SweepHistory(guildID string) ([]sweep.Report, error)
}

type Server struct {
	addr    string
	engine  *gin.Engine
	sweeper Sweeper
	history History
}

func New(addr string, sw Sweeper, history History) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{addr: addr, engine: gin.New(), sweeper: sw, history: history}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/status", s.status)
	s.engine.GET("/history", s.recent)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return s
}

// Handler exposes the routes without a listener.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	target := s.sweeper.Target()
	last, err := s.history.LastSweep(target.GuildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sweeps yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"target":     target,
		"running":    s.sweeper.Running(),
		"last_sweep": last,
	})
}

func (s *Server) recent(c *gin.Context) {
	reports, err := s.history.SweepHistory(s.sweeper.Target().GuildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []sweep.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"sweeps": reports})
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down status server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Status server shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] Status server listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
