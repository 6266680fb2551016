package state

import (
	"context"
	"strconv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation in the chat.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a chat.
type Session struct {
	State State             `json:"state"`
	Temp  map[string]string `json:"temp,omitempty"`
}

// Idle returns an empty session.
func Idle() Session {
	return Session{State: StateIdle}
}

// Active reports whether the session holds a pending step.
func (s Session) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Value returns a temp value or "" when absent.
func (s Session) Value(key string) string {
	if s.Temp == nil {
		return ""
	}
	return s.Temp[key]
}

// Int64 parses a temp value as int64.
func (s Session) Int64(key string) (int64, bool) {
	v := s.Value(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// With returns a copy of s with key set to value.
func (s Session) With(key, value string) Session {
	s = s.clone()
	if s.Temp == nil {
		s.Temp = make(map[string]string, 1)
	}
	s.Temp[key] = value
	return s
}

func (s Session) clone() Session {
	if s.Temp == nil {
		return s
	}
	temp := make(map[string]string, len(s.Temp))
	for k, v := range s.Temp {
		temp[k] = v
	}
	s.Temp = temp
	return s
}

// Manager stores sessions by chat id.
// Get never returns a nil error for a chat without a session; it yields Idle().
// Putting an idle session is equivalent to Clear.
type Manager interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Put(ctx context.Context, chatID int64, sess Session) error
	Clear(ctx context.Context, chatID int64) error
}
