// Package server は塗り絵ブック生成を HTTP / WebSocket / SSE で公開するのだ。
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-coloring-kit/pkg/workflow"

	"github.com/gin-gonic/gin"
)

// Server は gin のルーターと進捗配信用のハブを束ねるのだ。
type Server struct {
	mgr         *workflow.Manager
	hub         *Hub
	engine      *gin.Engine
	unsubscribe func()
}

// New は Manager の BookGenerator をハブに接続し、ルーティングを組み立てるのだ。
func New(mgr *workflow.Manager) *Server {
	hub := NewHub()
	s := &Server{
		mgr:         mgr,
		hub:         hub,
		unsubscribe: mgr.Generator().Subscribe(hub.Broadcast),
	}
	s.engine = s.routes()
	return s
}

// Handler は http.Server に渡すハンドラーを返すのだ。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close は購読を解除し、WebSocket クライアントをすべて切断するのだ。
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/credential", s.getCredential)
		api.POST("/credential", s.selectCredential)

		api.POST("/book", s.startBook)
		api.GET("/book", s.getBook)
		api.DELETE("/book", s.abandonBook)
		api.GET("/book/pages/:pageID/image", s.getPageImage)
		api.GET("/book/export", s.exportBook)

		api.GET("/books", s.listArchivedBooks)
		api.GET("/books/:runID", s.getArchivedBook)
		api.GET("/books/:runID/export", s.exportArchivedBook)

		chat := api.Group("/chat/sessions")
		chat.POST("", s.createChatSession)
		chat.GET("/:id", s.getChatSession)
		chat.DELETE("/:id", s.closeChatSession)
		chat.POST("/:id/messages", s.postChatMessage)
	}

	r.GET("/ws/book", s.bookSocket)
	return r
}

// requestLogger は gin のアクセスログを slog に流すのだ。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "HTTP",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// errorBody はエラー応答の共通形式なのだ。
func errorBody(code string, err error) gin.H {
	return gin.H{"error": code, "message": err.Error()}
}
