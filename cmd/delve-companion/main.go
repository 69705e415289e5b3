// Command delve-companion tracks Delve floor completions and unique drops
// from the game client's chat log and serves the statistics over HTTP.
//
// Usage:
//
//	delve-companion [serve] [flags]
//	delve-companion report [-mode STANDARD] [-view ALL] [-kind luck|progress] [-out file.html] [-open]
//	delve-companion history [-mode STANDARD] [-period today|week|month|all] [-limit 20]
//	delve-companion reset-manual [-mode STANDARD]
//	delve-companion backup create|list|restore <file>
//	delve-companion migrate version|up|down
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.delve-companion/config.toml)")
	debugMode  = flag.Bool("debug", false, "Enable debug logging")
)

const usage = `Usage: delve-companion [global flags] [command] [command flags]

Commands:
  serve         Tail the chat log and serve the API (default)
  report        Print the luck table and write an HTML chart
  history       Print recent events for a period
  reset-manual  Clear the manual profile of a game mode
  backup        Create, list or restore database backups
  migrate       Show the schema version, apply or roll back migrations

Global flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "serve":
		err = runServe(args)
	case "report":
		err = runReport(args)
	case "history":
		err = runHistory(args)
	case "reset-manual":
		err = runResetManual(args)
	case "backup":
		err = runBackup(args)
	case "migrate":
		err = runMigrate(args)
	case "help", "-h", "--help":
		flag.Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
