package main

import (
	"fmt"
	"os"
)

const usageText = `canvas synchronizes and inspects streamed UI documents.

Usage:
  canvas <command> [flags]

Commands:
  ui       attach the terminal inspector to a document stream
  replay   run a recorded stream through the engine and print the tree
  parse    decode a recorded stream into NDJSON events
  serve    expose recorded streams over the document HTTP surface
  help     show help

Flags:
  -h, --help   show help

Examples:
  canvas ui --doc report-7
  canvas ui --file session.stream
  canvas replay session.stream
  canvas parse session.stream
  canvas serve -delay 25ms session.stream
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "ui":
		exitOnErr("ui", runUI(args[1:]))
	case "replay":
		exitOnErr("replay", runReplay(args[1:]))
	case "parse":
		exitOnErr("parse", runParse(args[1:]))
	case "serve":
		exitOnErr("serve", runServe(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func exitOnErr(label string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}
