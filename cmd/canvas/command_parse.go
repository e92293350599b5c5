package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"strings"

	"canvas/internal/logging"
	"canvas/internal/wire"
)

// runParse decodes each line of a recorded stream and writes the resulting
// events as NDJSON, one object per accepted line. Rejected lines are counted
// and reported on stderr via the logger.
func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	verbose := fs.Bool("v", false, "log frame rejections to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("parse requires a stream file (or - for stdin)")
	}
	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	log := logging.Nop()
	if *verbose {
		log = logging.New(os.Stderr, logging.Debug)
	}
	parser := wire.NewParser(log)
	buffer := wire.NewLineBuffer()
	encoder := json.NewEncoder(os.Stdout)

	lines := buffer.Add(string(data))
	if rest, ok := buffer.Flush(); ok {
		lines = append(lines, rest)
	}
	for _, line := range lines {
		event := parser.ParseLine(line)
		if event == nil {
			continue
		}
		if err := encoder.Encode(eventRecord(event)); err != nil {
			return err
		}
	}
	return nil
}

// eventRecord flattens a StreamEvent for NDJSON output, leaving out the
// union fields that are not set.
func eventRecord(event *wire.StreamEvent) map[string]any {
	out := map[string]any{"kind": string(event.Kind)}
	if event.Sequence > 0 {
		out["sequence"] = event.Sequence
	}
	if event.Text != "" {
		out["text"] = event.Text
	}
	if event.Message != nil {
		out["message"] = event.Message
	}
	if event.Progress != nil {
		out["progress"] = event.Progress
	}
	if event.RawPatch != nil {
		out["patch"] = event.RawPatch
	}
	if event.Action != "" {
		out["action"] = string(event.Action)
	}
	if len(event.Data) > 0 {
		out["data"] = event.Data
	}
	if event.Err != nil {
		out["error"] = event.Err
	}
	if kind := strings.TrimSpace(string(event.Kind)); kind == "" {
		out["kind"] = string(wire.KindUnknown)
	}
	return out
}
