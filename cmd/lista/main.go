package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/lista/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	local := flag.Bool("local", false, "use a local JSON file instead of the sync server")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Local: *local,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
