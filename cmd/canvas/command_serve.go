package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"canvas/internal/logging"
	"canvas/internal/serve"
)

// runServe exposes recorded stream files over the document HTTP surface so
// the ui command (or any other consumer) can attach to canned sessions.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "127.0.0.1:8484", "listen address")
	delay := fs.Duration("delay", 0, "pause between replayed chunks, e.g. 25ms")
	chunkSize := fs.Int("chunk", 512, "chunk size in bytes for the replayed stream")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("serve requires at least one stream file")
	}

	log := logging.New(os.Stderr, logging.Info)
	api := serve.NewAPI(log)
	api.ChunkSize = *chunkSize
	api.Delay = *delay
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		id := recordingID(path)
		api.AddRecording(&serve.Recording{ID: id, Stream: data})
		fmt.Fprintf(os.Stderr, "serving %s as document %q\n", path, id)
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("fixture server listening", logging.F("addr", *addr))
	return server.ListenAndServe()
}

// recordingID derives the document id from the file name: the base name
// without its extension.
func recordingID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
