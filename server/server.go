package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/db/repository"
	"github.com/okonma/citymood/db/service"
	"github.com/okonma/citymood/logger"
	"github.com/okonma/citymood/scheduler"
)

const defaultListLimit = 100

// Server exposes the store to the dashboard as a read-only JSON API, plus
// a manual collection trigger and a websocket cycle feed.
type Server struct {
	router   *gin.Engine
	posts    *service.PostService
	comments *service.CommentService
	sched    *scheduler.Scheduler
	hub      *Hub
	cfg      *config.Config
}

// New wires the routes.
func New(cfg *config.Config, posts *service.PostService,
	comments *service.CommentService, sched *scheduler.Scheduler, hub *Hub) *Server {

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		posts:    posts,
		comments: comments,
		sched:    sched,
		hub:      hub,
		cfg:      cfg,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/posts", s.handleListPosts)
		api.GET("/posts/top", s.handleTopPosts)
		api.GET("/comments", s.handleListComments)
		api.GET("/cities", s.handleCities)
		api.GET("/summary", s.handleSummary)
		api.GET("/stats", s.handleStats)
		api.POST("/collect", s.handleCollect)
	}

	router.GET("/ws", func(c *gin.Context) {
		hub.Handle(c.Writer, c.Request)
	})

	return s
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Printf("Dashboard API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"timestamp":    time.Now(),
		"scheduler":    s.sched.Running(),
		"collecting":   s.sched.CollectionInFlight(),
		"ws_listeners": s.hub.ClientCount(),
	})
}

func (s *Server) handleListPosts(c *gin.Context) {
	filter := repository.PostFilter{
		City:      c.Query("city"),
		Sentiment: c.Query("sentiment"),
		SortBy:    c.Query("sort"),
		Limit:     intQuery(c, "limit", defaultListLimit),
	}

	if hours := intQuery(c, "since_hours", 0); hours > 0 {
		filter.Since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	posts, err := s.posts.ListPosts(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
}

func (s *Server) handleTopPosts(c *gin.Context) {
	posts, err := s.posts.TopPosts(c.Query("city"), intQuery(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
}

func (s *Server) handleListComments(c *gin.Context) {
	postID := c.Query("post_id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id query parameter is required"})
		return
	}

	comments, err := s.comments.CommentsForPost(postID, intQuery(c, "limit", defaultListLimit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(comments), "comments": comments})
}

func (s *Server) handleCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": s.cfg.Cities})
}

func (s *Server) handleSummary(c *gin.Context) {
	city := c.Query("city")

	// No city: one summary per configured city plus the global one.
	if city == "" {
		global, err := s.posts.Summary("")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		perCity := make([]service.SentimentSummary, 0, len(s.cfg.Cities))
		for name := range s.cfg.Cities {
			summary, err := s.posts.Summary(name)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			perCity = append(perCity, summary)
		}

		c.JSON(http.StatusOK, gin.H{"global": global, "cities": perCity})
		return
	}

	summary, err := s.posts.Summary(city)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleStats(c *gin.Context) {
	commentCount, err := s.comments.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats, err := s.posts.Stats(commentCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCollect(c *gin.Context) {
	stats, ok := s.sched.TriggerNow()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "a collection cycle is already running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "collection cycle completed", "stats": stats})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
