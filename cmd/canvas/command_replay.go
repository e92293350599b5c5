package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"

	"canvas/internal/engine"
	"canvas/internal/logging"
	"canvas/internal/wire"
)

// runReplay feeds a recorded stream file through the engine the way the
// network would, in fixed-size chunks, and prints the resulting document.
func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	chunkSize := fs.Int("chunk", 512, "chunk size in bytes used to feed the engine")
	verbose := fs.Bool("v", false, "log engine diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("replay requires a stream file (or - for stdin)")
	}
	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	if *chunkSize <= 0 {
		*chunkSize = 512
	}

	log := logging.Nop()
	if *verbose {
		log = logging.New(os.Stderr, logging.Debug)
	}
	eng := engine.New(engine.Options{Logger: log})
	defer eng.Close()

	sawDone := false
	for start := 0; start < len(data); start += *chunkSize {
		end := min(start+*chunkSize, len(data))
		for _, event := range eng.ProcessChunk(string(data[start:end])) {
			if event.Kind == wire.KindDone {
				sawDone = true
			}
		}
	}
	state := eng.Finish(sawDone)

	out := struct {
		State string          `json:"state"`
		Tree  json.RawMessage `json:"tree"`
	}{State: string(state)}
	treeJSON, err := json.Marshal(eng.Tree())
	if err != nil {
		return err
	}
	out.Tree = treeJSON
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
