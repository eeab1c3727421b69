package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/idilsaglam/lista/internal/model"
)

// Options tune behavior from root flags.
type Options struct {
	Local bool // use the JSON-file store instead of the sync server
}

// ---------------------------------------------------
// CLI router
// ---------------------------------------------------

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return doList(opt)

	case "add":
		content, cat, err := parseAddArgs(a)
		if err != nil {
			fail(err.Error())
			return 2
		}
		return doAdd(opt, content, cat)

	case "done":
		n, code := parseIndex(a, "done")
		if code != 0 {
			return code
		}
		return doToggle(opt, n)

	case "rm":
		n, code := parseIndex(a, "rm")
		if code != 0 {
			return code
		}
		return doRemove(opt, n)

	case "edit":
		if len(a) < 2 {
			fail("usage: lista edit <index> <content...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			fail("edit: not a number: " + a[0])
			return 2
		}
		return doEdit(opt, n, strings.Join(a[1:], " "))

	case "name":
		return doName(a)

	case "auth":
		if len(a) != 1 {
			fail("usage: lista auth <status|reset>")
			return 2
		}
		switch a[0] {
		case "status":
			return doAuthStatus()
		case "reset":
			return doAuthReset()
		default:
			fail("usage: lista auth <status|reset>")
			return 2
		}
	}

	fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`lista - a live-synced todo list

Usage:
  lista [--local] <subcommand> [args]

Subcommands:
  ls                         Live list (interactive TUI)
  add [-c business|personal] <content...>
                             Add a new item (default category: personal)
  done <index>               Toggle done for item at 1-based index
  rm <index>                 Remove item at 1-based index
  edit <index> <content...>  Replace an item's content
  name [new-name]            Show or set your display name
  auth <status|reset>        Anonymous session info

Examples:
  lista add "Buy milk"
  lista add -c business "File the report"
  lista ls
  lista done 2
  lista rm 3
`)
}

func parseIndex(a []string, cmd string) (int, int) {
	if len(a) != 1 {
		fail(fmt.Sprintf("usage: lista %s <index>", cmd))
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return n, 0
}

// parseAddArgs picks an optional "-c <category>" flag out of the add args;
// everything else joins into the content.
func parseAddArgs(a []string) (string, model.Category, error) {
	cat := model.CategoryPersonal
	words := make([]string, 0, len(a))
	for i := 0; i < len(a); i++ {
		if a[i] == "-c" {
			if i+1 >= len(a) {
				return "", "", fmt.Errorf("usage: lista add [-c business|personal] <content...>")
			}
			parsed, err := model.ParseCategory(a[i+1])
			if err != nil {
				return "", "", err
			}
			cat = parsed
			i++
			continue
		}
		words = append(words, a[i])
	}
	if len(words) == 0 {
		return "", "", fmt.Errorf("usage: lista add [-c business|personal] <content...>")
	}
	return strings.Join(words, " "), cat, nil
}

const firstSnapshotTimeout = 5 * time.Second
