package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fyne.io/fyne/v2"

	"LocalSketch/internal/config"
	sketchnet "LocalSketch/internal/net"
	"LocalSketch/internal/render"
	"LocalSketch/internal/session"
	"LocalSketch/internal/state"
	"LocalSketch/internal/storage"
	"LocalSketch/internal/ui"
)

const discoverTimeout = 3 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the TOML config file")
	headless := flag.Bool("headless", false, "run only the hub, without a window")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [%shost:port]\n", os.Args[0], sketchnet.ShareScheme)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	level := cfg.Log.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	state.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headless {
		if err := runHeadless(ctx, cfg); err != nil {
			logger.Error("hub stopped", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, *configPath, flag.Arg(0)); err != nil {
		logger.Error("localsketch failed", "err", err)
		os.Exit(1)
	}
}

func listenPort(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return sketchnet.DefaultPort
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 {
		return sketchnet.DefaultPort
	}
	return n
}

// startHub serves the hub in the background and advertises it over mDNS.
// The returned stop function shuts both down.
func startHub(ctx context.Context, listen string) (*sketchnet.Hub, func(), error) {
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", listen, err)
	}
	hub := sketchnet.NewHub()
	go func() {
		if err := hub.Serve(ctx, l); err != nil {
			state.Logger().Error("hub stopped", "component", "main", "err", err)
		}
	}()

	adv, err := sketchnet.Advertise(listenPort(listen))
	if err != nil {
		state.Logger().Warn("mdns advertise failed", "component", "main", "err", err)
	}
	return hub, func() {
		if adv != nil {
			adv.Shutdown()
		}
		hub.Close()
	}, nil
}

func runHeadless(ctx context.Context, cfg config.Config) error {
	_, stop, err := startHub(ctx, cfg.Sync.HubListen)
	if err != nil {
		return err
	}
	defer stop()
	<-ctx.Done()
	return nil
}

func openStore(path string) (session.Store, io.Closer, error) {
	if path == "" {
		m := storage.NewMemory()
		return m, m, nil
	}
	f, err := storage.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// connect picks the remote for this process: an explicit share link, the
// configured hub URL, a discovered hub, or else a hub hosted here. The
// returned link is non-empty only when hosting.
func connect(ctx context.Context, cfg config.Config, link string) (session.Remote, string, func(), error) {
	url := cfg.Sync.HubURL
	if link != "" {
		addr, err := sketchnet.ParseShareLink(link)
		if err != nil {
			return nil, "", nil, err
		}
		url = sketchnet.HubURL(addr)
	}
	if url == "" && cfg.Sync.Discover {
		addr, err := sketchnet.Discover(ctx, discoverTimeout)
		if err != nil {
			state.Logger().Info("no hub found, hosting", "component", "main", "err", err)
		} else {
			url = sketchnet.HubURL(addr)
		}
	}

	if url != "" {
		client, err := sketchnet.Dial(ctx, url)
		if err != nil {
			return nil, "", nil, err
		}
		state.Logger().Info("joined hub", "component", "main", "url", url, "local", client.LocalAddr())
		return client, "", func() { client.Close() }, nil
	}

	hub, stop, err := startHub(ctx, cfg.Sync.HubListen)
	if err != nil {
		return nil, "", nil, err
	}
	share := sketchnet.ShareLink(sketchnet.OutgoingIP(), listenPort(cfg.Sync.HubListen))
	state.Logger().Info("hosting board", "component", "main", "link", share)
	return hub.Local(), share, stop, nil
}

func run(ctx context.Context, cfg config.Config, configPath, link string) error {
	store, storeCloser, err := openStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer storeCloser.Close()

	remote, share, disconnect, err := connect(ctx, cfg, link)
	if err != nil {
		return err
	}
	defer disconnect()

	raster := render.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
	raster.SetCirclePoints(cfg.Sketch.CirclePoints)
	defer raster.Close()

	board := ui.NewBoardWidget(raster)
	sess, err := session.New(session.Options{
		ClientID:       state.NewClientID(),
		Store:          store,
		Remote:         remote,
		Renderer:       board,
		Classifier:     cfg.Sketch.Classifier(),
		DedupOnReceive: cfg.Sync.DedupOnReceive,
		RemotePath:     cfg.Sync.RemotePath,
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	board.Attach(sess)

	if err := sess.Hydrate(ctx); err != nil {
		state.Logger().Warn("hydrate failed", "component", "main", "err", err)
	}
	if sess.Background() == state.DefaultBackground && cfg.Sketch.Background != state.DefaultBackground {
		sess.SetBackground(cfg.Sketch.Background)
	}
	raster.ResetHistory()

	cancel, err := sess.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer cancel()

	apply := func(next config.Config) {
		sess.SetClassifier(next.Sketch.Classifier())
		sess.SetDedupOnReceive(next.Sync.DedupOnReceive)
		raster.SetCirclePoints(next.Sketch.CirclePoints)
		state.Logger().Info("config reloaded", "component", "main")
	}
	watcher, err := config.Watch(configPath, config.DefaultWatchDebounce, apply, func(err error) {
		board.SetStatus("Config error: " + err.Error())
	})
	if err != nil {
		state.Logger().Warn("config watch disabled", "component", "main", "err", err)
	} else {
		defer watcher.Stop()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				next, err := config.Load(configPath)
				if err != nil {
					board.SetStatus("Config error: " + err.Error())
					continue
				}
				apply(next)
			case <-ctx.Done():
				return
			}
		}
	}()

	if client, ok := remote.(*sketchnet.Client); ok {
		board.SetStatus("Connected as " + client.LocalAddr())
		go func() {
			select {
			case <-client.Done():
				if err := client.Err(); err != nil && !errors.Is(err, context.Canceled) {
					board.SetStatus("Disconnected from host: " + err.Error())
				}
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		<-ctx.Done()
		if a := fyne.CurrentApp(); a != nil {
			fyne.Do(a.Quit)
		}
	}()

	ui.RunApp(share, board, func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), session.DefaultIOTimeout)
		defer flushCancel()
		if err := sess.Flush(flushCtx); err != nil {
			state.Logger().Warn("flush on exit failed", "component", "main", "err", err)
		}
	})
	return nil
}
