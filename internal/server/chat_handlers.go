package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/gin-gonic/gin"
)

type chatSessionResponse struct {
	SessionID  string            `json:"session_id"`
	State      chat.State        `json:"state"`
	Streaming  bool              `json:"streaming"`
	Transcript domain.Transcript `json:"transcript"`
}

func sessionResponse(sess *chat.Session) chatSessionResponse {
	t := sess.Transcript()
	if t == nil {
		t = domain.Transcript{}
	}
	return chatSessionResponse{
		SessionID:  sess.ID(),
		State:      sess.State(),
		Streaming:  sess.Streaming(),
		Transcript: t,
	}
}

func (s *Server) createChatSession(c *gin.Context) {
	sess := s.mgr.ChatStore().Create()
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (s *Server) getChatSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (s *Server) closeChatSession(c *gin.Context) {
	if err := s.mgr.ChatStore().Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, errorBody("not_found", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) session(c *gin.Context) (*chat.Session, bool) {
	sess, err := s.mgr.ChatStore().Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("not_found", err))
		return nil, false
	}
	return sess, true
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

// postChatMessage は返信を SSE で流すのだ。
// delta は追記分、replace は返信全体の置き換え (失敗時の代替文言)、done は最終結果なのだ。
func (s *Server) postChatMessage(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		return
	}
	ctx := c.Request.Context()
	if err := s.mgr.Gate().Require(ctx); err != nil {
		c.JSON(http.StatusPreconditionRequired, errorBody("credential_required", err))
		return
	}

	started := false
	streamed := ""
	err := sess.Send(ctx, req.Message, func(t domain.Transcript) {
		last, ok := t.Last()
		if !ok || last.Speaker != domain.SpeakerAssistant {
			return
		}
		if !started {
			started = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Status(http.StatusOK)
		}
		switch {
		case last.Text == streamed:
			return
		case strings.HasPrefix(last.Text, streamed):
			c.SSEvent("delta", gin.H{"text": last.Text[len(streamed):]})
		default:
			c.SSEvent("replace", gin.H{"text": last.Text})
		}
		streamed = last.Text
		c.Writer.Flush()
	})

	if !started {
		// 受け付け前に弾かれた場合は通常の JSON エラーなのだ
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, errorBody("invalid_request", err))
		case errors.Is(err, chat.ErrSessionClosed), errors.Is(err, chat.ErrSessionBusy):
			c.JSON(http.StatusConflict, errorBody("session_unavailable", err))
		case err != nil:
			c.JSON(http.StatusInternalServerError, errorBody("internal", err))
		default:
			c.JSON(http.StatusOK, gin.H{"reply": ""})
		}
		return
	}
	c.SSEvent("done", gin.H{"reply": streamed})
	c.Writer.Flush()
}
