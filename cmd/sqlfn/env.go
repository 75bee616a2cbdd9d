package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/config"
	"github.com/joacominatel/sqlfn/internal/logging"
	"github.com/joacominatel/sqlfn/metrics"
	"github.com/joacominatel/sqlfn/tracing"
)

const (
	serviceName = "sqlfn"
	maxConns    = 4
)

var errNoConnection = errors.New("no connection: pass --dsn, --profile or set a default profile")

// environment is the state shared by every command: flags, the loaded
// configuration and the base options all statements start from.
type environment struct {
	configDir    string
	logLevel     string
	profile      string
	dsn          string
	timeout      time.Duration
	metricsAddr  string
	otlpEndpoint string
	otlpInsecure bool

	// connector, when set, replaces the pgx connector of every session.
	connector sqlfn.Connector

	cfg     *config.Config
	base    sqlfn.Options
	closers []func(context.Context) error
}

func (e *environment) setup(ctx context.Context) error {
	if e.configDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		e.configDir = dir
	}

	cfg, err := config.Load(e.configDir)
	if err != nil {
		return err
	}
	e.cfg = cfg

	level := e.logLevel
	if level == "" {
		level = cfg.Preferences.LogLevel
	}
	if level != "" {
		if err := logging.SetLevelFromString(level); err != nil {
			return err
		}
	}

	timeout := e.timeout
	if timeout <= 0 {
		timeout = cfg.Preferences.Timeout
	}

	base := sqlfn.Options{}.WithLogger(logging.Logger())
	connector := e.connector
	if connector == nil {
		pool := &sqlfn.Pool{MaxConns: maxConns}
		e.closers = append(e.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		connector = pool.Connect
	}
	base = base.WithConnector(connector)
	if timeout > 0 {
		base = base.WithTimeout(timeout)
	}

	var hooks []sqlfn.Hook
	if e.metricsAddr != "" {
		h, err := e.serveMetrics()
		if err != nil {
			return err
		}
		hooks = append(hooks, h)
	}
	if e.otlpEndpoint != "" {
		tp, err := tracing.NewProvider(ctx, e.otlpEndpoint, serviceName, e.otlpInsecure)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, tp.Shutdown)
		hooks = append(hooks, tracing.New(tp))
	}
	if len(hooks) > 0 {
		base = base.WithHooks(hooks...)
	}
	e.base = base
	return nil
}

func (e *environment) serveMetrics() (*metrics.Hook, error) {
	reg := prometheus.NewRegistry()
	hook, err := metrics.New(reg, serviceName, nil)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", e.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger().Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logging.Logger().Info("serving metrics", slog.String("addr", ln.Addr().String()))
	e.closers = append(e.closers, srv.Shutdown)
	return hook, nil
}

// shutdown releases whatever setup started, last first.
func (e *environment) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i](ctx))
	}
	e.closers = nil
	return errors.Join(errs...)
}

// connectionString resolves the DSN of a command: --dsn first, then
// --profile, then the default profile. With optional set, no connection at
// all yields an empty string instead of an error.
func (e *environment) connectionString(optional bool) (string, error) {
	if e.dsn != "" {
		return e.dsn, nil
	}
	if e.profile != "" {
		conn, ok := e.cfg.Lookup(e.profile)
		if !ok {
			return "", fmt.Errorf("unknown profile %q", e.profile)
		}
		return conn.ResolveDSN()
	}
	if optional {
		return "", nil
	}
	if conn := e.cfg.DefaultConnection(); conn != nil {
		return conn.ResolveDSN()
	}
	return "", errNoConnection
}

// session returns the base options bound to the command's connection.
func (e *environment) session() (sqlfn.Options, error) {
	dsn, err := e.connectionString(false)
	if err != nil {
		return sqlfn.Options{}, err
	}
	return e.base.WithConnectionString(dsn), nil
}
