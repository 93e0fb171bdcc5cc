package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrSessionNotFound は指定した ID のセッションが存在しない場合のエラーです。
var ErrSessionNotFound = errors.New("チャットセッションが見つかりません")

// Store はセッションを ID で保持します。最後に参照されてから ttl が経過すると破棄されます。
type Store struct {
	streamer ReplyStreamer
	ttl      time.Duration
	sessions *cache.Cache
}

// NewStore は Store を作成します。
func NewStore(streamer ReplyStreamer, ttl time.Duration) *Store {
	return &Store{
		streamer: streamer,
		ttl:      ttl,
		sessions: cache.New(ttl, ttl*2),
	}
}

// Create は新しいセッションを Open 状態で作成します。
func (s *Store) Create() *Session {
	sess := NewSession(uuid.NewString(), s.streamer)
	sess.Open()
	s.sessions.Set(sess.ID(), sess, s.ttl)
	return sess
}

// Get はセッションを返し、有効期限を延長します。
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*Session)
	s.sessions.Set(id, sess, s.ttl)
	return sess, nil
}

// Close はセッションを閉じて破棄します。
func (s *Store) Close(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.Close()
	s.sessions.Delete(id)
	return nil
}

// Count は保持しているセッション数を返します。
func (s *Store) Count() int {
	return s.sessions.ItemCount()
}
