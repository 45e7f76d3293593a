// Package server exposes the council over HTTP: conversation CRUD, a
// blocking deliberation endpoint, and a server-sent-events stream that
// mirrors the engine's event sequence frame by frame.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"council/internal/config"
	"council/internal/council"
	"council/internal/event"
	"council/internal/logging"
	"council/internal/storage"
)

// Deliberator runs one full deliberation. *council.Orchestrator
// implements it; tests substitute fakes.
type Deliberator interface {
	Deliberate(ctx context.Context, req council.DeliberationRequest, sink event.Sink) (*council.DeliberationResult, error)
}

// TitleFunc produces a conversation title from its first user message.
type TitleFunc func(ctx context.Context, query string) string

// Server wires the HTTP API to the engine and the conversation store.
type Server struct {
	cfg         *config.Config
	store       *storage.Store
	deliberator Deliberator
	title       TitleFunc
	logger      *logging.Logger
	router      *gin.Engine
}

// New assembles the server and its routes.
func New(cfg *config.Config, store *storage.Store, deliberator Deliberator, title TitleFunc, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Server{
		cfg:         cfg,
		store:       store,
		deliberator: deliberator,
		title:       title,
		logger:      logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	api.GET("/config", s.getConfig)
	api.GET("/conversations", s.listConversations)
	api.POST("/conversations", s.createConversation)
	api.GET("/conversations/:id", s.getConversation)
	api.POST("/conversations/:id/message", s.sendMessage)
	api.POST("/conversations/:id/message/stream", s.sendMessageStream)

	s.router = router
	return s
}

// Handler returns the http.Handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.router.Run(addr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "council"})
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":              s.cfg.Council.Members,
		"chairman":            s.cfg.Council.Chairman,
		"consensus_threshold": s.cfg.Council.ConsensusThreshold,
		"stream_synthesis":    s.cfg.Council.StreamSynthesis,
	})
}

func (s *Server) listConversations(c *gin.Context) {
	summaries, err := s.store.List()
	if err != nil {
		s.logger.Error("listing conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) createConversation(c *gin.Context) {
	conv, err := s.store.Create()
	if err != nil {
		s.logger.Error("creating conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// prepareMessage records the user message and, on the first message of
// a conversation, generates and stores a title. Returns the title if
// one was generated.
func (s *Server) prepareMessage(ctx context.Context, id, content string) (string, error) {
	conv, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	first := len(conv.Messages) == 0

	if err := s.store.AddUserMessage(id, content); err != nil {
		return "", err
	}

	if !first || s.title == nil {
		return "", nil
	}
	title := s.title(ctx, content)
	if err := s.store.SetTitle(id, title); err != nil {
		s.logger.Warn("storing title", "error", err)
	}
	return title, nil
}

func (s *Server) deliberationRequest(content string) council.DeliberationRequest {
	return council.DeliberationRequest{
		Prompt:       content,
		Participants: s.cfg.Council.Members,
		Chairman:     s.cfg.Council.Chairman,
	}
}

// sendMessage runs the full deliberation synchronously and returns the
// complete three-stage record.
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	id := c.Param("id")
	if _, err := s.prepareMessage(c.Request.Context(), id, req.Content); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	result, err := s.deliberator.Deliberate(c.Request.Context(), s.deliberationRequest(req.Content), nil)
	if err != nil {
		s.logger.Error("deliberation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.AddAssistantMessage(id, result); err != nil {
		s.logger.Error("storing assistant message", "error", err)
	}

	c.JSON(http.StatusOK, result)
}

// sendMessageStream runs the deliberation while relaying engine events
// to the client as SSE frames.
func (s *Server) sendMessageStream(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	id := c.Param("id")
	conv, err := s.store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	first := len(conv.Messages) == 0
	if err := s.store.AddUserMessage(id, req.Content); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	events := make(chan event.Event, 64)

	go func() {
		defer close(events)

		forward := event.SinkFunc(func(e event.Event) { events <- e })
		// The title rides the same stream: it is generated after the
		// synthesis lands and announced before the terminal event.
		sink := event.SinkFunc(func(e event.Event) {
			forward.Emit(e)
			if e.EventType() == event.TypeStage3Completed && first && s.title != nil {
				title := s.title(ctx, req.Content)
				if err := s.store.SetTitle(id, title); err != nil {
					s.logger.Warn("storing title", "error", err)
				}
				forward.Emit(event.NewTitleCompletedEvent(title))
			}
		})

		result, err := s.deliberator.Deliberate(ctx, s.deliberationRequest(req.Content), sink)
		if err != nil {
			return
		}
		if err := s.store.AddAssistantMessage(id, result); err != nil {
			s.logger.Error("storing assistant message", "error", err)
		}
	}()

	for e := range events {
		writeFrame(c, e)
		c.Writer.Flush()
	}
}
