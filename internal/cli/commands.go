package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/idilsaglam/lista/internal/auth"
	"github.com/idilsaglam/lista/internal/config"
	"github.com/idilsaglam/lista/internal/model"
	"github.com/idilsaglam/lista/internal/profile"
	"github.com/idilsaglam/lista/internal/store"
	"github.com/idilsaglam/lista/internal/store/localstore"
	"github.com/idilsaglam/lista/internal/store/wsstore"
	"github.com/idilsaglam/lista/internal/sync"
	"github.com/idilsaglam/lista/internal/tui"
)

// openCollection picks the store implementation: the sync server by default,
// the JSON file when --local (or LISTA_LOCAL) is set.
func openCollection(ctx context.Context, cfg *config.Config, opt Options) (store.Collection, error) {
	if opt.Local || cfg.Local {
		return localstore.Open("")
	}
	return wsstore.Dial(ctx, cfg.ServerURL)
}

// session wraps auth.Current into the error taxonomy.
func session() (*auth.Session, error) {
	s, err := auth.Current()
	if err != nil {
		return nil, &store.AuthError{Err: err}
	}
	return s, nil
}

// withSync opens the collection, subscribes, waits for the first snapshot
// and hands the populated synchronizer to fn. Used by every one-shot
// subcommand; the TUI manages its own loop in doList.
func withSync(opt Options, fn func(ctx context.Context, s *sync.Synchronizer) error) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session()
	if err != nil {
		fail(err.Error())
		return 1
	}
	cfg := config.Load()
	coll, err := openCollection(ctx, cfg, opt)
	if err != nil {
		fail(err.Error())
		return 1
	}
	defer coll.Close()

	s := sync.New(coll, sess.ID)
	snaps, err := s.Subscribe(ctx)
	if err != nil {
		fail(err.Error())
		return 1
	}
	defer s.Close()

	select {
	case snap, ok := <-snaps:
		if !ok {
			s.SubscriptionLost()
			fail("subscription ended: " + s.Status())
			return 1
		}
		s.Apply(snap)
	case <-time.After(firstSnapshotTimeout):
		fail("timed out waiting for the first snapshot")
		return 1
	}

	if err := fn(ctx, s); err != nil {
		fail(err.Error())
		return 1
	}
	return 0
}

// ---------------------------------------------------
// Core subcommands
// ---------------------------------------------------

func doList(opt Options) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session()
	if err != nil {
		fail(err.Error())
		return 1
	}
	cfg := config.Load()

	// The TUI owns the terminal; logs go to a file under the state dir.
	logFile, err := config.SetupLogFile()
	if err == nil {
		defer logFile.Close()
		log := config.NewLogger(cfg.LogLevel, logFile)
		log.WithField("session", sess.ID).Info("starting live list")
	}

	coll, err := openCollection(ctx, cfg, opt)
	if err != nil {
		fail(err.Error())
		return 1
	}
	defer coll.Close()

	s := sync.New(coll, sess.ID)
	snaps, err := s.Subscribe(ctx)
	if err != nil {
		fail(err.Error())
		return 1
	}
	defer s.Close()

	if err := tui.Run(ctx, s, snaps); err != nil {
		fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doAdd(opt Options, content string, cat model.Category) int {
	return withSync(opt, func(ctx context.Context, s *sync.Synchronizer) error {
		if err := s.Add(ctx, content, cat); err != nil {
			return err
		}
		ok("added")
		return nil
	})
}

func doToggle(opt Options, userIndex int) int {
	return withSync(opt, func(ctx context.Context, s *sync.Synchronizer) error {
		it, err := itemAt(s, userIndex)
		if err != nil {
			return err
		}
		if err := s.ToggleDone(ctx, it.ID); err != nil {
			return err
		}
		ok("toggled")
		return nil
	})
}

func doRemove(opt Options, userIndex int) int {
	return withSync(opt, func(ctx context.Context, s *sync.Synchronizer) error {
		it, err := itemAt(s, userIndex)
		if err != nil {
			return err
		}
		if err := s.Remove(ctx, it.ID); err != nil {
			return err
		}
		ok("removed")
		return nil
	})
}

func doEdit(opt Options, userIndex int, content string) int {
	return withSync(opt, func(ctx context.Context, s *sync.Synchronizer) error {
		it, err := itemAt(s, userIndex)
		if err != nil {
			return err
		}
		s.SetDraft(it.ID, content)
		if err := s.FlushDraft(ctx, it.ID); err != nil {
			return err
		}
		ok("edited")
		return nil
	})
}

func itemAt(s *sync.Synchronizer, userIndex int) (model.Item, error) {
	items := s.Items()
	if userIndex < 1 || userIndex > len(items) {
		fmt.Fprintln(os.Stderr, mutedStyle.Render("Hint: run `lista ls` to see valid indexes"))
		return model.Item{}, fmt.Errorf("index out of range: have %d, got %d", len(items), userIndex)
	}
	return items[userIndex-1], nil
}

// ---------------------------------------------------
// Profile and auth subcommands
// ---------------------------------------------------

func doName(a []string) int {
	if len(a) == 0 {
		name, err := profile.DisplayName()
		if err != nil {
			fail("name: " + err.Error())
			return 1
		}
		if name == "" {
			fmt.Println(mutedStyle.Render("no display name set"))
			fmt.Println("Run: lista name <your-name>")
			return 0
		}
		fmt.Println(name)
		return 0
	}
	if err := profile.SetDisplayName(strings.Join(a, " ")); err != nil {
		fail("name: " + err.Error())
		return 1
	}
	ok("name saved")
	return 0
}

func doAuthStatus() int {
	sess, err := session()
	if err != nil {
		fail(err.Error())
		return 1
	}
	fmt.Printf("session: %s\n", sess.ID)
	fmt.Printf("source: %s\n", sess.Source)
	if !sess.CreatedAt.IsZero() {
		fmt.Printf("created: %s\n", sess.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Println("env override: LISTA_SESSION")
	return 0
}

func doAuthReset() int {
	sess, _ := auth.Current()
	if sess != nil && sess.Source == "env" {
		ok("session is provided by LISTA_SESSION env var (nothing to reset)")
		return 0
	}
	if err := auth.Reset(); err != nil {
		fail("reset: " + err.Error())
		return 1
	}
	ok("session reset; a new one is minted on next use")
	return 0
}
