// Package localstore is a JSON-file-backed Collection. Single file,
// human-readable, portable. It resolves creation markers immediately and
// emits a synthetic full snapshot after every write, so the synchronizer
// runs unchanged with no server at all.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

const dataFileName = "todos.json"

// Store implements store.Collection over a single JSON file.
type Store struct {
	path string

	mu    sync.Mutex
	items []model.Item
	seq   uint64
	subs  map[*subscription]struct{}
}

// Open loads (or lazily creates) the data file. An empty path means
// todos.json in the working directory.
func Open(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, dataFileName)
	}
	s := &Store{
		path: path,
		subs: make(map[*subscription]struct{}),
	}
	items, err := load(path)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func load(path string) ([]model.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func (s *Store) save() error {
	b, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Create assigns an id, resolves the creation marker right away (there is no
// remote round trip to wait for) and broadcasts the new snapshot.
func (s *Store) Create(_ context.Context, it model.Item) (string, error) {
	if err := it.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.CreatedAt = model.MarkerAt(time.Now())
	s.items = append(s.items, it)
	if err := s.save(); err != nil {
		s.items = s.items[:len(s.items)-1]
		return "", err
	}
	s.broadcast()
	return it.ID, nil
}

// Merge applies a partial update to one item.
func (s *Store) Merge(_ context.Context, id string, p store.Patch) error {
	if p.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return store.ErrNotFound
	}
	prev := s.items[idx]
	if p.Content != nil {
		s.items[idx].Content = *p.Content
	}
	if p.Done != nil {
		s.items[idx].Done = *p.Done
	}
	if err := s.items[idx].Validate(); err != nil {
		s.items[idx] = prev
		return err
	}
	if err := s.save(); err != nil {
		s.items[idx] = prev
		return err
	}
	s.broadcast()
	return nil
}

// Delete removes one item.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return store.ErrNotFound
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if err := s.save(); err != nil {
		s.items = append(s.items[:idx], append([]model.Item{removed}, s.items[idx:]...)...)
		return err
	}
	s.broadcast()
	return nil
}

func (s *Store) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Close ends every open subscription.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.terminate(nil)
		delete(s.subs, sub)
	}
	return nil
}
