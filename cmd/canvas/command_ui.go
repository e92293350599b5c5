package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"canvas/internal/app"
	"canvas/internal/client"
	"canvas/internal/config"
	"canvas/internal/engine"
	"canvas/internal/logging"
)

// runUI attaches the terminal inspector either to a live document stream or
// to a recorded stream file.
func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	doc := fs.String("doc", "", "document id to stream")
	file := fs.String("file", "", "recorded stream file to replay instead of a live stream")
	addr := fs.String("addr", "", "stream server address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *doc == "" && *file == "" {
		return errors.New("ui requires --doc or --file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closeLog, err := uiLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	eng := engine.New(engine.Options{
		Logger:        log,
		FlushInterval: cfg.FlushInterval(),
		MaxBatch:      cfg.MaxBatch(),
		HistoryLimit:  cfg.HistoryLimit(),
	})
	defer eng.Close()

	if *file != "" {
		go replayIntoEngine(eng, *file)
		return app.Run(eng)
	}

	baseURL := cfg.StreamBaseURL()
	if *addr != "" {
		baseURL = "http://" + *addr
	}
	c := client.New(baseURL)
	events, cancel, err := c.StreamDocument(context.Background(), *doc, eng)
	if err != nil {
		return err
	}
	defer cancel()
	go func() {
		// The engine already consumed every event; drain the channel so the
		// stream reader never stalls on it.
		for range events {
		}
	}()
	return app.Run(eng)
}

func replayIntoEngine(eng *engine.Engine, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	const chunkSize = 512
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		eng.ProcessChunk(string(data[start:end]))
	}
	eng.Finish(false)
}

// uiLogger writes diagnostics to the data dir instead of the terminal the
// inspector is drawing on.
func uiLogger(cfg config.Config) (logging.Logger, func(), error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return logging.Nop(), func() {}, nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return logging.Nop(), func() {}, nil
	}
	path := dataDir + "/ui.log"
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop(), func() {}, nil
	}
	return logging.New(file, logging.ParseLevel(cfg.LogLevel())), func() { _ = file.Close() }, nil
}
