// Command fluxdl is a thin demonstration of the download library: it is not
// the deliverable, the internal/download package is.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fluxdl/fluxdl/internal/download"
	"github.com/fluxdl/fluxdl/internal/httpclient"
	"github.com/fluxdl/fluxdl/internal/logging"
	"github.com/fluxdl/fluxdl/internal/progress"
)

func main() {
	url := flag.String("url", "", "URL to download")
	out := flag.String("out", "", "destination file path")
	chunkSize := flag.Uint64("chunk-size", 0, "chunk size in bytes (0 = library default)")
	retries := flag.Uint("retries", 3, "retries per chunk/HEAD on failure")
	rateLimit := flag.Uint64("rate-limit", 0, "max bytes/sec (0 = unlimited)")
	flag.Parse()

	if *url == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: fluxdl -url <url> -out <path>")
		os.Exit(2)
	}

	log := logging.NewDefault()

	builder := download.NewConfigBuilder().
		SetURL(*url).
		SetPath(*out).
		SetRetryTimesOnFailure(uint8(*retries)).
		SetReceiveBytesPerSecond(*rateLimit)
	if *chunkSize > 0 {
		builder = builder.SetChunkSize(*chunkSize)
	}

	cfg, err := builder.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := httpclient.New(log, httpclient.Options{})
	service := download.NewService(client, log)
	service.Start(ctx)
	defer service.Stop()

	op := service.Add(cfg)

	bar := progress.NewCLIProgress()
	if watchErr := bar.Watch(ctx, op, *out, 200*time.Millisecond); watchErr != nil {
		log.Error().Err(watchErr).Msg("download failed")
		os.Exit(1)
	}

	log.Info().Str("path", *out).Msg("download complete")
}
