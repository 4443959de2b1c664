// Command mrx rebuilds the hierarchical model of a market-runs session
// from its wide-format CSV export (plus optional chat log) and exposes it
// for inspection and export.
//
// Usage:
//
//	mrx                     Show help
//	mrx build               Rebuild the model and print the data-quality report
//	mrx export              Rebuild and export to sqlite and/or CSV
//	mrx stats               Rebuild and print structural statistics
//	mrx browse              Rebuild and open the interactive browser
package main

import (
	"fmt"
	"os"

	"github.com/calebeynon/MarketRuns-sub000/internal/logging"
)

const usage = `mrx — market-runs experiment model builder

Usage:
  mrx <command> [flags]

Commands:
  build       Rebuild the hierarchical model, print the data-quality report
  export      Rebuild and export flatten tables (sqlite, CSV)
  stats       Rebuild and print structural statistics
  browse      Rebuild and open the interactive browser

Common flags (every command):
  -wide PATH  Wide per-participant CSV export (or config wide_csv)
  -chat PATH  Chat log CSV (optional; or config chat_csv)

Run 'mrx <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	defer logging.Close()

	switch cmd {
	case "build":
		runBuild()
	case "export":
		runExport()
	case "stats":
		runStats()
	case "browse":
		runBrowse()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "mrx: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
