// Package session keeps the signed-in user's fields in durable storage
// next to the response cache blob, each under its own fixed key.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oma-gateway/internal/storage"
)

// Storage keys.
const (
	KeyRole           = "userRole"
	KeyUsername       = "username"
	KeyLastLogin      = "lastLogin"
	KeyCachedUsername = "cachedUsername"
)

var ErrInvalid = errors.New("session: username and role are required")

// Session is the persisted sign-in state. CachedUsername survives a
// sign-out so the login form can be prefilled.
type Session struct {
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	LastLogin      time.Time `json:"lastLogin"`
	CachedUsername string    `json:"cachedUsername,omitempty"`
}

func (s Session) SignedIn() bool { return s.Role != "" }

type Store struct {
	kv  storage.KV
	now func() time.Time
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// SetClock replaces the time source for LastLogin.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// SignIn records role and username with the current time. remember keeps
// the username for the next sign-in; otherwise it is forgotten.
func (s *Store) SignIn(ctx context.Context, username, role string, remember bool) (Session, error) {
	username, role = strings.TrimSpace(username), strings.TrimSpace(role)
	if username == "" || role == "" {
		return Session{}, ErrInvalid
	}
	sess := Session{Username: username, Role: role, LastLogin: s.now().UTC()}

	writes := []struct{ key, value string }{
		{KeyRole, role},
		{KeyUsername, username},
		{KeyLastLogin, sess.LastLogin.Format(time.RFC3339Nano)},
	}
	for _, w := range writes {
		if err := s.kv.Set(ctx, w.key, w.value); err != nil {
			return Session{}, fmt.Errorf("save %s: %w", w.key, err)
		}
	}

	var err error
	if remember {
		sess.CachedUsername = username
		err = s.kv.Set(ctx, KeyCachedUsername, username)
	} else {
		err = s.kv.Remove(ctx, KeyCachedUsername)
	}
	if err != nil {
		return Session{}, fmt.Errorf("cache username: %w", err)
	}
	return sess, nil
}

// Current reads the stored fields. Missing keys leave their field zero; an
// unparseable lastLogin reads as zero time.
func (s *Store) Current(ctx context.Context) (Session, error) {
	var sess Session
	fields := []struct {
		key string
		dst *string
	}{
		{KeyRole, &sess.Role},
		{KeyUsername, &sess.Username},
		{KeyCachedUsername, &sess.CachedUsername},
	}
	for _, f := range fields {
		v, _, err := s.kv.Get(ctx, f.key)
		if err != nil {
			return Session{}, fmt.Errorf("read %s: %w", f.key, err)
		}
		*f.dst = v
	}

	raw, found, err := s.kv.Get(ctx, KeyLastLogin)
	if err != nil {
		return Session{}, fmt.Errorf("read %s: %w", KeyLastLogin, err)
	}
	if found {
		sess.LastLogin, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return sess, nil
}

// SignOut removes the role and last-login time.
func (s *Store) SignOut(ctx context.Context) error {
	for _, key := range []string{KeyRole, KeyLastLogin} {
		if err := s.kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}
