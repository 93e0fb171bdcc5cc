// Package chat は塗り絵アシスタントとの会話セッションを扱います。
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/sanitize"
)

// FallbackReply はストリーミングに失敗した場合にアシスタント発話を置き換える文言です。
const FallbackReply = "Oh no! My magic wand is out of ink. Can you try asking again?"

var (
	// ErrSessionClosed はセッションが閉じている場合のエラーです。
	ErrSessionClosed = errors.New("チャットセッションは閉じています")
	// ErrSessionBusy は前の返信をストリーミング中の場合のエラーです。
	ErrSessionBusy = errors.New("前の返信を受信中です")
	// ErrEmptyMessage は空のメッセージを送ろうとした場合のエラーです。
	ErrEmptyMessage = errors.New("メッセージが空です")
)

// ReplyStreamer は返信を断片として流すモデル呼び出しです。
// gateway.Gateway はこれを満たします。
type ReplyStreamer interface {
	StreamChatReply(ctx context.Context, prior domain.Transcript, message string) iter.Seq2[string, error]
}

// State はセッションの開閉状態です。
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Session は1つの会話です。Closed と Open の2状態を持ちます。
type Session struct {
	id       string
	streamer ReplyStreamer

	mu         sync.Mutex
	state      State
	transcript domain.Transcript
	streaming  bool
}

// NewSession は Closed 状態のセッションを作成します。
func NewSession(id string, streamer ReplyStreamer) *Session {
	return &Session{
		id:       id,
		streamer: streamer,
		state:    StateClosed,
	}
}

// ID はセッション ID を返します。
func (s *Session) ID() string { return s.id }

// Open はセッションを開きます。履歴は保持されます。
func (s *Session) Open() {
	s.mu.Lock()
	s.state = StateOpen
	s.mu.Unlock()
}

// Close はセッションを閉じます。ストリーミング中の返信は最後まで反映されます。
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}

// State は現在の状態を返します。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript は会話履歴のコピーを返します。
func (s *Session) Transcript() domain.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

// Streaming は返信を受信中かを返します。
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Send はユーザー発話を追加し、アシスタントの返信をストリーミングで受け取ります。
// onUpdate は断片を受け取るたびに履歴のコピーと共に呼ばれます (nil 可)。
// ストリーミングの失敗はフォールバック文言で回復するため、エラーとしては返しません。
func (s *Session) Send(ctx context.Context, message string, onUpdate func(domain.Transcript)) error {
	message = sanitize.Text(message)
	if message == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.streaming {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	s.streaming = true
	prior := s.transcript.Clone()
	s.transcript = append(s.transcript,
		domain.ChatMessage{Speaker: domain.SpeakerUser, Text: message},
		domain.ChatMessage{Speaker: domain.SpeakerAssistant, Text: ""},
	)
	placeholder := len(s.transcript) - 1
	snap := s.transcript.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.streaming = false
		s.mu.Unlock()
	}()

	emit(onUpdate, snap)

	for chunk, err := range s.streamer.StreamChatReply(ctx, prior, message) {
		if err != nil {
			slog.WarnContext(ctx, "Chat: 返信の受信に失敗しました", "session_id", s.id, "error", err)
			emit(onUpdate, s.mutate(func(t domain.Transcript) { t[placeholder].Text = FallbackReply }))
			return nil
		}
		emit(onUpdate, s.mutate(func(t domain.Transcript) { t[placeholder].Text += chunk }))
	}
	return nil
}

// mutate は履歴を変更し、変更後のコピーを返します。
func (s *Session) mutate(fn func(domain.Transcript)) domain.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.transcript)
	return s.transcript.Clone()
}

func emit(onUpdate func(domain.Transcript), t domain.Transcript) {
	if onUpdate != nil {
		onUpdate(t)
	}
}
