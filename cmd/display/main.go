package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/config"
	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/display"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

func main() {
	tvID := flag.Int("tv", 0, "TV id to present")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *tvID <= 0 {
		log.Fatal().Msg("usage: display -tv <id>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client := sync.NewClient(cfg.BaseURL, cfg.RelayPath)
	renderer := newRenderer(os.Stdout)

	d := display.New(client, display.Options{
		TVID:            domain.TVID(*tvID),
		ScreenWidth:     cfg.ScreenWidth,
		ScreenHeight:    cfg.ScreenHeight,
		DefaultInterval: cfg.SlideshowInterval,
		OnChange:        renderer.Render,
	})
	defer d.Close()

	sub, err := client.Subscribe(ctx, core.DisplayScope(domain.TVID(*tvID)))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to relay")
	}
	defer sub.Dispose()

	d.Start(ctx)

	// Key input: one line per key ("f", "+", "ArrowRight", ...).
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			key := scanner.Text()
			if key == "" {
				continue
			}
			d.Activity()
			d.HandleKey(ctx, key)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("display shutting down")
			return
		case ev, ok := <-sub.Events():
			if !ok {
				log.Warn().Msg("relay stream ended, last snapshot stays on screen")
				<-ctx.Done()
				return
			}
			d.Apply(ctx, ev)
		}
	}
}
