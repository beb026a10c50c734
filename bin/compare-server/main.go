package main

import (
	"context"
	"flag"
	"log"
	"screenshot-verifier/internal/runnable"
	"screenshot-verifier/internal/storage"
)

func main() {
	var storageBackend string
	var debug bool
	flag.StringVar(&storageBackend, "storage-backend", runnable.EnvOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.BoolVar(&debug, "debug", runnable.EnvOrDefaultValue("DEBUG", false), "Enable text logs and pprof endpoints")

	flag.Parse()

	runnable.Debug = debug

	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{
		Backend:   storageBackend,
		Directory: runnable.EnvOrDefaultValue("DIRECTORY", "/tmp"),
		Bucket:    runnable.EnvOrDefaultValue("S3_BUCKET", ""),
		Prefix:    runnable.EnvOrDefaultValue("S3_PREFIX", ""),
	})
	if err != nil {
		log.Fatalf("failed to create storage backend: %v", err)
	}

	if err := runnable.NewServer(s).Start(ctx); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
