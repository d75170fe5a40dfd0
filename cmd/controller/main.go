package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/config"
	"github.com/prakoso/tvcast/internal/controller"
	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

// consoleNotifier prints dashboard toasts to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Notify(level controller.Level, message string) {
	fmt.Printf("[%s] %s\n", level, message)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  controller list
  controller create <name>
  controller upload <id> <file>...
  controller youtube <id> [link]
  controller clear <id>
  controller delete <id>
  controller zoom <id> <command>
  controller watch`)
	os.Exit(2)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if len(os.Args) < 2 {
		usage()
	}

	client := sync.NewClient(cfg.BaseURL, cfg.RelayPath)
	ctl := controller.New(client, consoleNotifier{})

	switch os.Args[1] {
	case "list":
		if err := ctl.Load(ctx); err != nil {
			os.Exit(1)
		}
		printTVs(ctl.TVs())

	case "create":
		if len(os.Args) != 3 {
			usage()
		}
		if _, err := ctl.CreateTV(ctx, os.Args[2]); err != nil {
			os.Exit(1)
		}

	case "upload":
		if len(os.Args) < 4 {
			usage()
		}
		id := parseID(os.Args[2])
		uploads := make([]sync.Upload, 0, len(os.Args)-3)
		files := make([]*os.File, 0, len(os.Args)-3)
		for _, path := range os.Args[3:] {
			f, err := os.Open(path)
			if err != nil {
				log.Fatal().Err(err).Str("file", path).Msg("cannot open image")
			}
			files = append(files, f)
			uploads = append(uploads, sync.Upload{Name: filepath.Base(path), Reader: f})
		}
		_, err := ctl.UploadImages(ctx, id, uploads)
		for _, f := range files {
			f.Close()
		}
		if err != nil {
			os.Exit(1)
		}

	case "youtube":
		if len(os.Args) < 3 {
			usage()
		}
		link := ""
		if len(os.Args) > 3 {
			link = os.Args[3]
		}
		if _, err := ctl.SetYoutubeLink(ctx, parseID(os.Args[2]), link); err != nil {
			os.Exit(1)
		}

	case "clear":
		if len(os.Args) != 3 {
			usage()
		}
		if _, err := ctl.ClearImages(ctx, parseID(os.Args[2])); err != nil {
			os.Exit(1)
		}

	case "delete":
		if len(os.Args) != 3 {
			usage()
		}
		if err := ctl.DeleteTV(ctx, parseID(os.Args[2])); err != nil {
			os.Exit(1)
		}

	case "zoom":
		if len(os.Args) != 4 {
			usage()
		}
		cmd, err := domain.ParseZoomCommand(os.Args[3])
		if err != nil {
			log.Fatal().Str("command", os.Args[3]).Msg("unknown zoom command")
		}
		if err := ctl.SendZoomCommand(ctx, parseID(os.Args[2]), cmd); err != nil {
			os.Exit(1)
		}

	case "watch":
		watch(ctx, client, ctl)

	default:
		usage()
	}
}

// watch keeps the reconciled collection live: snapshot first, then relay
// events applied in arrival order.
func watch(ctx context.Context, client *sync.Client, ctl *controller.Controller) {
	if err := ctl.Load(ctx); err != nil {
		os.Exit(1)
	}
	printTVs(ctl.TVs())

	sub, err := client.Subscribe(ctx, core.CollectionScope())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to relay")
	}
	defer sub.Dispose()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				log.Warn().Msg("relay stream ended")
				return
			}
			ctl.Apply(ev)
			printTVs(ctl.TVs())
		}
	}
}

func printTVs(tvs []domain.TV) {
	if len(tvs) == 0 {
		fmt.Println("no TVs registered")
		return
	}
	for _, tv := range tvs {
		link := "-"
		if tv.YoutubeLink != "" {
			link = tv.YoutubeLink
		}
		fmt.Printf("%3d  %-20s  images=%d  youtube=%s\n", tv.ID, tv.Name, len(tv.EffectiveImages()), link)
	}
}

func parseID(s string) domain.TVID {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Fatal().Str("id", s).Msg("invalid TV id")
	}
	return domain.TVID(n)
}
