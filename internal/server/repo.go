package server

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/store"
)

const dbFileName = "lista.db"

// Repo is the server's SQLite storage for the todos collection. Pure Go
// driver, WAL mode, single writer.
type Repo struct {
	db *sql.DB
}

// OpenRepo opens (and migrates) the database under dataDir.
func OpenRepo(dataDir string) (*Repo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id           TEXT PRIMARY KEY,
	content      TEXT NOT NULL,
	category     TEXT NOT NULL,
	done         INTEGER NOT NULL DEFAULT 0,
	created_sec  INTEGER NOT NULL,
	created_nsec INTEGER NOT NULL,
	created_by   TEXT NOT NULL DEFAULT ''
);`

// List returns every item in insertion order. Clients sort for display
// themselves; insertion order is what snapshots deliver as the tie-break.
func (r *Repo) List() ([]model.Item, error) {
	rows, err := r.db.Query(`
		SELECT id, content, category, done, created_sec, created_nsec, created_by
		FROM todos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var (
			it   model.Item
			done int
			sec  int64
			nsec int32
		)
		if err := rows.Scan(&it.ID, &it.Content, &it.Category, &done, &sec, &nsec, &it.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		it.Done = done != 0
		it.CreatedAt = model.Marker{At: &model.Timestamp{Seconds: sec, Nanos: nsec}}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Insert stores a new item, resolving its creation marker to now. The
// resolved marker is what the snapshot echoes back to the writer.
func (r *Repo) Insert(it model.Item) (model.Item, error) {
	if err := it.Validate(); err != nil {
		return model.Item{}, err
	}
	now := time.Now()
	it.CreatedAt = model.MarkerAt(now)
	done := 0
	if it.Done {
		done = 1
	}
	_, err := r.db.Exec(`
		INSERT INTO todos (id, content, category, done, created_sec, created_nsec, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Content, string(it.Category), done,
		it.CreatedAt.At.Seconds, it.CreatedAt.At.Nanos, it.CreatedBy)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert: %w", err)
	}
	return it, nil
}

// Merge updates only the fields present in the patch. Per-document atomicity
// comes from the single UPDATE; concurrent edits to the same field are last
// write wins.
func (r *Repo) Merge(id string, p store.Patch) error {
	if p.Empty() {
		return nil
	}
	set := ""
	args := []any{}
	if p.Content != nil {
		if err := model.ValidateContent(*p.Content); err != nil {
			return err
		}
		set += "content = ?"
		args = append(args, *p.Content)
	}
	if p.Done != nil {
		if set != "" {
			set += ", "
		}
		done := 0
		if *p.Done {
			done = 1
		}
		set += "done = ?"
		args = append(args, done)
	}
	args = append(args, id)
	res, err := r.db.Exec("UPDATE todos SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes one item.
func (r *Repo) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.db.Close()
}
