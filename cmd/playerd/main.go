// Command playerd is the playback engine's composition root. It wires
// configuration, the request cache, the track resolver, the audio
// source/sink pair, and the engine supervisor together, then drives the
// result from stdin commands for manual smoke-testing. It stands in for
// the CLI REPL / chat-bot hosting layer that stays out of scope.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/llehouerou/playerd/internal/audiosink"
	"github.com/llehouerou/playerd/internal/audiosource"
	"github.com/llehouerou/playerd/internal/cache"
	"github.com/llehouerou/playerd/internal/config"
	"github.com/llehouerou/playerd/internal/engine"
	"github.com/llehouerou/playerd/internal/resolver"
	"github.com/llehouerou/playerd/internal/track"
)

func main() {
	cfg, err := config.Load("playerd")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging.Level)

	reqCache, closeCache, err := buildCache(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build request cache")
	}
	defer closeCache()

	router := resolver.NewRoutingResolver(
		resolver.NewLocalFileResolver(),
		resolver.NewRemoteResolver(
			resolver.FetcherOptions{
				Path:               cfg.Fetcher.Path,
				UseCookies:         cfg.Fetcher.UseCookies,
				CookiesFromBrowser: cfg.Fetcher.CookiesFromBrowser,
				CookiesFile:        cfg.Fetcher.CookiesFile,
			},
			reqCache,
			cfg.Resolver.CacheTTL(),
			0,
		),
	)

	source := audiosource.NewRoutingSource(
		audiosource.NewLocalFileSource(decoderOptions(cfg)),
		audiosource.NewRemoteSource(fetcherOptions(cfg), decoderOptions(cfg), audiosource.DefaultPumpBufferSize),
	)

	out := newStdoutOutput()
	sink := audiosink.New(out)

	eng := engine.New(source, sink, cfg.Playback.QueueCapacity)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go eng.Run(ctx)
	go logEvents(eng.Subscribe())

	log.Info().Msg("playerd ready, type 'help' for commands")
	runCommandLoop(ctx, eng, router)

	stop()
	<-eng.Done()
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func buildCache(cfg config.CacheConfig) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case config.CacheBackendSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "playerd-cache.sqlite"
		}
		conn, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, func() {}, err
		}
		c, err := cache.NewSQLiteCache(conn)
		if err != nil {
			_ = conn.Close()
			return nil, func() {}, err
		}
		return c, func() { _ = c.Close() }, nil
	case config.CacheBackendRemote:
		c := cache.NewRedisCache(cfg.DSN)
		return c, func() { _ = c.Close() }, nil
	default:
		c := cache.NewMemoryCache()
		return c, func() { _ = c.Close() }, nil
	}
}

func decoderOptions(cfg *config.Config) audiosource.DecoderOptions {
	return audiosource.DecoderOptions{
		Path:         cfg.Decoder.Path,
		HideBanner:   cfg.Decoder.HideBanner,
		LogLevel:     cfg.Decoder.LogLevel,
		SampleFormat: cfg.Decoder.SampleFormat,
		Channels:     cfg.Decoder.Channels,
		SampleRate:   cfg.Decoder.SampleRate,
	}
}

func fetcherOptions(cfg *config.Config) audiosource.FetcherOptions {
	return audiosource.FetcherOptions{
		Path:               cfg.Fetcher.Path,
		UseCookies:         cfg.Fetcher.UseCookies,
		CookiesFromBrowser: cfg.Fetcher.CookiesFromBrowser,
		CookiesFile:        cfg.Fetcher.CookiesFile,
	}
}

// stdoutOutput adapts a buffered os.Stdout to audiosink.Output so the
// smoke-test driver has somewhere real to send paced PCM.
type stdoutOutput struct {
	w *bufio.Writer
}

func newStdoutOutput() *stdoutOutput {
	return &stdoutOutput{w: bufio.NewWriterSize(os.Stdout, audiosource.DefaultPumpBufferSize)}
}

func (o *stdoutOutput) Write(p []byte) (int, error) { return o.w.Write(p) }
func (o *stdoutOutput) Flush() error                { return o.w.Flush() }
func (o *stdoutOutput) Close() error                { return o.w.Flush() }

func logEvents(sub *engine.Subscription) {
	for {
		select {
		case ev, ok := <-sub.StateChanged:
			if !ok {
				return
			}
			log.Info().Str("previous", ev.Previous.String()).Str("current", ev.Current.String()).Msg("state changed")
		case ev, ok := <-sub.TrackChanged:
			if !ok {
				return
			}
			if ev.Track == nil {
				log.Info().Msg("track changed: none")
				continue
			}
			log.Info().Str("title", ev.Track.Title).Str("uri", ev.Track.URI).Msg("track changed")
		case ev, ok := <-sub.SessionEnded:
			if !ok {
				return
			}
			log.Info().Str("uri", ev.Track.URI).Str("reason", ev.Result.Reason.String()).Msg("session ended")
		case <-sub.Done:
			return
		}
	}
}

const helpText = `commands:
  play <url-or-path>     resolve and play immediately
  enqueue <url-or-path>  resolve and append to the queue
  skip                   cancel the current track
  pause                  pause playback
  resume                 resume playback
  clear                  empty the pending queue
  stop                   stop and clear the queue
  quit                   shut down`

func runCommandLoop(ctx context.Context, eng *engine.Engine, router *resolver.RoutingResolver) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "help":
			fmt.Println(helpText)
		case "play":
			resolveAndDispatch(ctx, router, arg, eng.PlayNow, eng.EnqueueTracks)
		case "enqueue":
			resolveAndDispatch(ctx, router, arg, nil, eng.EnqueueTracks)
		case "skip":
			eng.Skip()
		case "pause":
			eng.Pause()
		case "resume":
			eng.Resume()
		case "clear":
			eng.Clear()
		case "stop":
			eng.Stop()
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command, type 'help'")
		}
	}
}

func resolveAndDispatch(
	ctx context.Context,
	router *resolver.RoutingResolver,
	raw string,
	playNow func(track.Track),
	enqueue func([]track.Track),
) {
	if raw == "" {
		fmt.Println("usage: play|enqueue <url-or-path>")
		return
	}
	tracks, err := router.Resolve(ctx, track.TrackRequest{Raw: raw})
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("failed to resolve request")
		return
	}
	if len(tracks) == 0 {
		log.Warn().Str("raw", raw).Msg("resolved to no tracks")
		return
	}
	if playNow != nil {
		playNow(tracks[0])
		if len(tracks) > 1 && enqueue != nil {
			enqueue(tracks[1:])
		}
		return
	}
	if enqueue != nil {
		enqueue(tracks)
	}
}
