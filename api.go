// Package sluice loads configuration from a relational data source and
// watches it for remote changes.
//
// The core type is Adapter, which runs a fixed lifecycle for every load:
//
//	Validate → Prime baseline → Start watch → Load → Post-process
//
// Each step short-circuits on error and exactly one outcome is delivered to
// the completion callback. When a watch is configured, a background loop
// keeps polling the watch query after the lifecycle completes and raises a
// change event whenever the first row of its result differs from the
// previous poll. The loop stops when the host signals that reloading is
// starting.
//
// # Data sources
//
// The adapter talks to the database through the Dialer interface, one fresh
// connection per query. Implementations are available in pkg/:
//
//   - pkg/postgres: PostgreSQL via pgx
//   - pkg/sqldb: any database/sql driver (sqlite, mysql, ...)
//
// # Post-processing
//
// Transforms run in order on the loaded RowSet. The first failure aborts the
// chain. Helpers cover the common cases:
//
//	sluice.First()                              // RowSet → Row
//	sluice.Column("data")                       // RowSet → column value
//	sluice.Decode[Flags]("data", sluice.JSONCodec{}) // RowSet → validated Flags
//
// # Example
//
//	adapter := sluice.New(postgres.New(), sluice.Config{
//	    URL:    "postgres://localhost/app",
//	    Query:  "SELECT data FROM config WHERE key = $1",
//	    Params: []any{"app"},
//	    Watch: &sluice.WatchConfig{
//	        Query:    "SELECT last_modified FROM config WHERE key = $1",
//	        Params:   []any{"app"},
//	        Interval: "1m",
//	    },
//	}, sluice.Decode[AppConfig]("data", sluice.JSONCodec{})).
//	    OnChange(func() { reload() })
//
//	host := sluice.NewSession()
//	adapter.Run(ctx, host, func(v any, err error) {
//	    if err != nil {
//	        log.Printf("config load failed: %v", err)
//	        return
//	    }
//	    apply(v.(AppConfig))
//	})
//
//	// later, before loading again:
//	host.Reload()
package sluice

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Adapter loads a value set from a data source and optionally watches it
// for changes. An Adapter may be run any number of times; each Run is an
// independent lifecycle with its own Handle.
type Adapter struct {
	dialer       Dialer
	config       Config
	chain        *Chain
	clock        clockz.Clock
	queryTimeout time.Duration
	parse        func(string) (time.Duration, error)
	metrics      MetricsProvider
	historySize  int
	onChange     []func()
	onError      []func(error)
}

// New creates an Adapter for cfg. The config is merged with defaults and
// copied; later changes to cfg have no effect. Transforms post-process the
// loaded RowSet in the order given.
func New(dialer Dialer, cfg Config, transforms ...Transform) *Adapter {
	return &Adapter{
		dialer: dialer,
		config: cfg.withDefaults(),
		chain:  NewChain(transforms...),
		clock:  clockz.RealClock,
		parse:  time.ParseDuration,
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for the watch ticker and query timeouts.
// Use this with clockz.FakeClock for deterministic watch testing.
// Must be called before Run().
func (a *Adapter) Clock(clock clockz.Clock) *Adapter {
	a.clock = clock
	return a
}

// QueryTimeout bounds every individual query. It overrides Config.Timeout.
// Default: no timeout (a hung query blocks its step). Must be called before Run().
func (a *Adapter) QueryTimeout(d time.Duration) *Adapter {
	a.queryTimeout = d
	return a
}

// DurationParser replaces time.ParseDuration for the watch interval and
// timeout strings. Must be called before Run().
func (a *Adapter) DurationParser(parse func(string) (time.Duration, error)) *Adapter {
	a.parse = parse
	return a
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Run().
func (a *Adapter) Metrics(provider MetricsProvider) *Adapter {
	a.metrics = provider
	return a
}

// ErrorHistorySize sets the number of recent watch failures each Handle
// retains. Use 0 (default) to keep only the last error via LastError().
// Must be called before Run().
func (a *Adapter) ErrorHistorySize(n int) *Adapter {
	a.historySize = n
	return a
}

// OnChange registers a change listener on every Handle this adapter returns.
// Unlike Handle.OnChange, it is in place before the watch loop starts.
func (a *Adapter) OnChange(fn func()) *Adapter {
	a.onChange = append(a.onChange, fn)
	return a
}

// OnError registers a watch-error listener on every Handle this adapter returns.
func (a *Adapter) OnError(fn func(error)) *Adapter {
	a.onError = append(a.onError, fn)
	return a
}

// Config returns the adapter's configuration with defaults applied.
func (a *Adapter) Config() Config {
	return a.config
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts a lifecycle and returns immediately. completion is called
// exactly once, from another goroutine, with either the post-processed value
// or an error; value is nil whenever err is non-nil.
//
// If a watch is configured, the watch loop keeps running after completion
// until host starts reloading, ctx is done, or Handle.Stop is called. A nil
// host never reloads.
func (a *Adapter) Run(ctx context.Context, host Host, completion func(any, error)) *Handle {
	if host == nil {
		host = NewSession()
	}
	if completion == nil {
		completion = func(any, error) {}
	}
	h := newHandle(host, a.clock, a.metrics, a.historySize)
	h.onChange = append(h.onChange, a.onChange...)
	h.onError = append(h.onError, a.onError...)

	go func() {
		v, err := a.lifecycle(ctx, h)
		completion(v, err)
	}()

	return h
}

// Load runs a lifecycle and blocks until its outcome is available.
func (a *Adapter) Load(ctx context.Context, host Host) (any, *Handle, error) {
	type outcome struct {
		v   any
		err error
	}
	ch := make(chan outcome, 1)
	h := a.Run(ctx, host, func(v any, err error) {
		ch <- outcome{v, err}
	})
	out := <-ch
	return out.v, h, out.err
}

// lifecycle runs validate, prime, watch, load and process in order and
// returns the outcome of the first failing step or of post-processing.
func (a *Adapter) lifecycle(ctx context.Context, h *Handle) (any, error) {
	start := a.clock.Now()
	watching := false
	defer func() {
		if !watching {
			close(h.done)
		}
	}()

	capitan.Emit(ctx, AdapterStarted,
		KeyQuery.Field(a.config.Query),
	)

	fail := func(stage Stage, err error) (any, error) {
		h.transition(ctx, StateLoading, StateFailed)
		if a.metrics != nil {
			a.metrics.OnLoadFailure(stage, a.clock.Since(start))
		}
		capitan.Emit(ctx, AdapterCompleted,
			KeyStage.Field(string(stage)),
			KeyError.Field(err.Error()),
			KeyDuration.Field(a.clock.Since(start)),
		)
		return nil, err
	}

	// Validate
	p, err := validate(a.config, a.parse)
	if err != nil {
		capitan.Emit(ctx, ValidationFailed,
			KeyError.Field(err.Error()),
		)
		return fail(StageValidate, err)
	}
	if p.skip {
		h.transition(ctx, StateLoading, StateHealthy)
		capitan.Emit(ctx, AdapterCompleted,
			KeyStage.Field(string(StageValidate)),
			KeyDuration.Field(a.clock.Since(start)),
		)
		return nil, nil
	}

	timeout := p.timeout
	if a.queryTimeout > 0 {
		timeout = a.queryTimeout
	}
	s := session{dialer: a.dialer, clock: a.clock, timeout: timeout}

	if p.Watch != nil {
		// Prime baseline
		rows, err := s.query(ctx, p.URL, p.Watch.Query, p.Watch.Params)
		if err != nil {
			capitan.Emit(ctx, LoadFailed,
				KeyStage.Field(string(StagePrime)),
				KeyQuery.Field(p.Watch.Query),
				KeyError.Field(err.Error()),
			)
			return fail(StagePrime, err)
		}
		baseline := fingerprintOf(rows)
		capitan.Emit(ctx, BaselinePrimed,
			KeyQuery.Field(p.Watch.Query),
			KeyRows.Field(len(rows)),
		)

		// Start watch
		loop := &watchLoop{
			session:  s,
			url:      p.URL,
			query:    p.Watch.Query,
			params:   p.Watch.Params,
			interval: p.interval,
			last:     baseline,
			handle:   h,
		}
		watching = true
		capitan.Emit(ctx, WatchStarted,
			KeyQuery.Field(p.Watch.Query),
			KeyInterval.Field(p.interval),
		)
		go loop.run(ctx)
	}

	// Load
	rows, err := s.query(ctx, p.URL, p.Query, p.Params)
	if err != nil {
		capitan.Emit(ctx, LoadFailed,
			KeyStage.Field(string(StageLoad)),
			KeyQuery.Field(p.Query),
			KeyError.Field(err.Error()),
		)
		return fail(StageLoad, err)
	}
	capitan.Emit(ctx, LoadSucceeded,
		KeyQuery.Field(p.Query),
		KeyRows.Field(len(rows)),
	)

	// Post-process
	value, err := a.chain.Apply(ctx, rows)
	if err != nil {
		capitan.Emit(ctx, ChainFailed,
			KeyError.Field(err.Error()),
		)
		return fail(StageProcess, err)
	}

	h.settle(ctx)
	if a.metrics != nil {
		a.metrics.OnLoadSuccess(len(rows), a.clock.Since(start))
	}
	capitan.Emit(ctx, AdapterCompleted,
		KeyStage.Field(string(StageProcess)),
		KeyRows.Field(len(rows)),
		KeyDuration.Field(a.clock.Since(start)),
	)
	return value, nil
}
