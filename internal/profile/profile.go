// Package profile stores the user's display name: a single string value
// under the state dir, independent of the synced collection.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/idilsaglam/lista/internal/config"
)

const nameFileName = "name"

func namePath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, nameFileName), nil
}

// DisplayName returns the stored name, or "" when none is set.
func DisplayName() (string, error) {
	p, err := namePath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read name: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// SetDisplayName persists the name. Blank values are rejected.
func SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty name")
	}
	p, err := namePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(p, []byte(name+"\n"), 0o600); err != nil {
		return fmt.Errorf("write name: %w", err)
	}
	return nil
}
