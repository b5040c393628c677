package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	metrics    *shared.Metrics

	mu       sync.Mutex
	store    repositories.Store
	nats     *nats.Conn
	tracing  func(context.Context) error
	external bool // store was injected and is not ours to close
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
	Metrics    *shared.Metrics
	Store      repositories.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
		metrics:    opts.Metrics,
		store:      opts.Store,
		external:   opts.Store != nil,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, clientsCommand, roomsCommand, bookingsCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) { r.logger = l }

// configure reloads the config from --config when the file exists and builds the services it describes.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	level := r.config.LogLevel
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if r.api == nil {
		r.api = services.NewAPIServiceFromConfig(r.config.API)
	}
	if r.metrics == nil && r.config.Telemetry.Metrics {
		r.metrics = shared.NewMetrics()
	}
	if r.config.Telemetry.TraceStdout && r.tracing == nil {
		shutdown, err := shared.InitTracing(ctx, shared.TracingConfig{
			ServiceName:    appName,
			ServiceVersion: appVersion,
			UseStdout:      true,
		})
		if err != nil {
			return ctx, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		r.tracing = shutdown
	}
	return ctx, nil
}

// openStore opens the configured key-value store once.
func (r *Runner) openStore() (repositories.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return r.store, nil
	}
	store, err := repositories.OpenStore(r.config.Storage, r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", r.config.Storage.Driver, err)
	}
	r.store = store
	return store, nil
}

// natsConn dials refresh.nats_url once. It returns nil when NATS is not configured.
func (r *Runner) natsConn() (*nats.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.Refresh.NATSURL == "" {
		return nil, nil
	}
	if r.nats != nil {
		return r.nats, nil
	}
	conn, err := refresh.ConnectNATS(r.config.Refresh.NATSURL)
	if err != nil {
		return nil, err
	}
	r.nats = conn
	return conn, nil
}

// Close releases the store, the NATS connection and the tracer provider.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.nats != nil {
		errs = append(errs, r.nats.Drain())
		r.nats = nil
	}
	if r.store != nil && !r.external {
		errs = append(errs, r.store.Close())
		r.store = nil
	}
	if r.tracing != nil {
		errs = append(errs, r.tracing(ctx))
		r.tracing = nil
	}
	return errors.Join(errs...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
