// Command sluice loads a configuration value set from a database, prints it
// as JSON, and prints it again whenever the source changes.
//
// Usage:
//
//	sluice --config sluice.yaml [--metrics-addr :9090] [--once] [--debug]
//
// Example config:
//
//	source:
//	  url: postgres://localhost/app
//	  query: SELECT data FROM config WHERE key = $1
//	  params: [app]
//	  watch:
//	    query: SELECT last_modified FROM config WHERE key = $1
//	    params: [app]
//	    interval: 1m
//	column: data
//	format: json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sluice"
	sluiceprom "github.com/zoobzio/sluice/pkg/prometheus"
	sluiceredis "github.com/zoobzio/sluice/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sluice:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sluice", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "sluice.yaml", "path to the config file")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	once := fs.Bool("once", false, "load once and exit without watching")
	debug := fs.Bool("debug", false, "enable development logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	hookSignals(log)
	defer capitan.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := sluiceprom.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           sluiceprom.Handler(prometheus.DefaultGatherer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	r := &runner{
		path:    *configPath,
		once:    *once,
		log:     log,
		metrics: metrics,
		out:     stdout,
	}
	return r.loop(ctx)
}

// runner reloads the value set each time the source or the config file
// changes.
type runner struct {
	path    string
	once    bool
	log     *zap.Logger
	metrics sluice.MetricsProvider
	out     io.Writer
}

func (r *runner) loop(ctx context.Context) error {
	s, err := loadSettings(r.path)
	if err != nil {
		return err
	}

	var configChanged <-chan struct{}
	if !r.once {
		configChanged, err = watchFile(ctx, r.path)
		if err != nil {
			return err
		}
	}

	for {
		changed := make(chan struct{}, 1)
		adapter, cleanup, err := r.build(ctx, s)
		if err != nil {
			return err
		}
		adapter.OnChange(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})

		host := sluice.NewSession()
		v, h, loadErr := adapter.Load(ctx, host)
		if loadErr == nil {
			if err := r.print(v); err != nil {
				r.log.Error("print failed", zap.Error(err))
			}
		}

		if r.once {
			host.Reload()
			<-h.Done()
			cleanup()
			return loadErr
		}

		select {
		case <-ctx.Done():
			host.Reload()
			<-h.Done()
			cleanup()
			return nil
		case <-changed:
			r.log.Info("source changed, reloading")
		case <-configChanged:
			next, err := loadSettings(r.path)
			if err != nil {
				r.log.Error("config reload rejected, keeping previous", zap.Error(err))
			} else {
				r.log.Info("config file changed, reloading")
				s = next
			}
		}
		host.Reload()
		<-h.Done()
		cleanup()
	}
}

// build creates an adapter for s. cleanup releases the resources it opened.
func (r *runner) build(ctx context.Context, s settings) (*sluice.Adapter, func(), error) {
	dialer, err := dialerFor(s.Source.URL)
	if err != nil {
		return nil, nil, err
	}
	adapter := sluice.New(dialer, s.Source, s.transforms()...).
		Metrics(r.metrics).
		ErrorHistorySize(10).
		OnError(func(err error) {
			r.log.Warn("watch error", zap.Error(err), zap.String("kind", sluice.KindOf(err).String()))
		})

	cleanup := func() {}
	if s.Broadcast.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: s.Broadcast.Addr})
		b := sluiceredis.NewBroadcaster(client, s.Broadcast.Channel, s.Broadcast.Source)
		adapter.OnChange(b.Listener(ctx))
		cleanup = func() { _ = client.Close() }
	}
	return adapter, cleanup, nil
}

func (r *runner) print(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
