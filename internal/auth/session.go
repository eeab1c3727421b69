// Package auth provides the anonymous session identity. No passwords, no
// tokens: the first use mints an opaque id, persists it under the state dir,
// and every created item carries it as createdBy.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/lista/internal/config"
)

const sessionFileName = "session.json"

// Session identifies this installation anonymously.
type Session struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // "env" | "file"
	CreatedAt time.Time `json:"created_at"`
}

func sessionFilePath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFileName), nil
}

// Current returns the active session, minting and persisting one on first
// use. The LISTA_SESSION env var overrides the file, which keeps tests and
// multi-profile setups simple.
func Current() (*Session, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv("LISTA_SESSION")); env != "" {
		return &Session{ID: env, Source: "env"}, nil
	}

	// 2) file
	p, err := sessionFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err == nil {
		var s Session
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("parse session: %w", err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("session file has no id")
		}
		s.Source = "file"
		return &s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read session: %w", err)
	}

	// 3) mint
	s := Session{
		ID:        uuid.NewString(),
		Source:    "file",
		CreatedAt: time.Now().UTC(),
	}
	if err := save(p, s); err != nil {
		return nil, err
	}
	return &s, nil
}

func save(p string, s Session) error {
	// ensure the state dir exists with 0700
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// owner-only: the id is this user's identity
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Reset deletes the persisted session; the next Current mints a new one.
// A session provided via LISTA_SESSION is not affected.
func Reset() error {
	p, err := sessionFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
