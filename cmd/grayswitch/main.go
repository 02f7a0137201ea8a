// Gray Switch - MQTT to GPIO/process bridge
//
// This is the main entry point for the Gray Switch daemon. It reads a
// line-oriented bridge file naming digital outputs, process actions, and
// the subscriptions linking MQTT topics to them, then reacts to inbound
// ON/OFF messages by driving GPIO lines and starting/stopping child
// processes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/gray-switch/internal/action"
	"github.com/nerrad567/gray-switch/internal/bridgecfg"
	"github.com/nerrad567/gray-switch/internal/gpio"
	"github.com/nerrad567/gray-switch/internal/infrastructure/config"
	"github.com/nerrad567/gray-switch/internal/infrastructure/database"
	"github.com/nerrad567/gray-switch/internal/infrastructure/logging"
	"github.com/nerrad567/gray-switch/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-switch/internal/infrastructure/telemetry"
	"github.com/nerrad567/gray-switch/internal/journal"
	"github.com/nerrad567/gray-switch/internal/output"
	"github.com/nerrad567/gray-switch/internal/routing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default file locations. Both can be overridden on the command line or
// via GRAYSWITCH_CONFIG / GRAYSWITCH_SETTINGS.
const (
	defaultBridgePath   = "/etc/grayswitch/grayswitch.conf"
	defaultSettingsPath = "/etc/grayswitch/settings.yaml"
)

// options holds the parsed command line.
type options struct {
	bridgePath   string
	settingsPath string
	verbose      int
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		// parseArgs has already printed the problem (or the requested
		// help/version text, in which case err is nil-coded via exit).
		os.Exit(1)
	}

	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		// Fatal configuration and startup errors go to standard output
		// with a failing exit code; runtime errors never land here.
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs parses the command line.
//
// -h and -v print to stdout and exit 0 directly; unknown flags and stray
// positional arguments return an error after usage has been printed.
func parseArgs(args []string) (options, error) {
	opts := options{
		bridgePath:   defaultBridgePath,
		settingsPath: defaultSettingsPath,
	}
	if p := os.Getenv("GRAYSWITCH_CONFIG"); p != "" {
		opts.bridgePath = p
	}
	if p := os.Getenv("GRAYSWITCH_SETTINGS"); p != "" {
		opts.settingsPath = p
	}

	fs := pflag.NewFlagSet("grayswitch", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	help := fs.BoolP("help", "h", false, "print help and exit")
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	fs.CountVarP(&opts.verbose, "verbose", "V", "increase log verbosity (repeatable)")
	fs.StringVarP(&opts.bridgePath, "config", "c", opts.bridgePath, "bridge config file")
	fs.StringVarP(&opts.settingsPath, "settings", "s", opts.settingsPath, "daemon settings file")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: grayswitch [OPTIONS]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return opts, err
	}

	if *help {
		fs.SetOutput(os.Stdout)
		fs.Usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("grayswitch %s (commit %s, built %s)\n", version, commit, date)
		os.Exit(0)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "extra cmdline args: %v\n", fs.Args())
		fs.Usage()
		return opts, fmt.Errorf("unexpected positional arguments")
	}

	return opts, nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, opts options) error {
	// Use default logger until settings are loaded
	log := logging.Default()
	log.Info("starting Gray Switch",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load daemon settings (missing file means defaults)
	cfg, err := config.Load(opts.settingsPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyVerbosity(cfg, opts.verbose)

	// Reinitialise logger with settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Load the bridge file: broker, outputs, actions, subscriptions.
	// Any malformed record is fatal before the message loop starts.
	table, err := bridgecfg.LoadFile(opts.bridgePath)
	if err != nil {
		return fmt.Errorf("loading bridge config: %w", err)
	}
	for _, w := range table.Warnings {
		log.Warn("bridge config", "warning", w)
	}
	log.Info("bridge config loaded",
		"path", opts.bridgePath,
		"outputs", len(table.Outputs),
		"actions", len(table.Actions),
		"subscriptions", len(table.Subscriptions),
	)

	// Acquire every GPIO line up front; failure is fatal.
	outputs := output.NewRegistry(gpio.NewCdevOpener(), table.Outputs)
	outputs.SetLogger(log.With("component", "output"))
	if err := outputs.AcquireAll(); err != nil {
		return fmt.Errorf("acquiring outputs: %w", err)
	}
	defer func() {
		log.Info("releasing output lines")
		outputs.ReleaseAll()
	}()

	// Action registry: validity is checked once, here; invalid actions
	// are retained but never spawned.
	actions := action.NewRegistry(table.Actions)
	actions.SetLogger(log.With("component", "action"))
	actions.CheckExecutables()

	supervisor := action.NewSupervisor(actions, cfg.GetGracefulTimeout())
	supervisor.SetLogger(log.With("component", "supervisor"))

	// Resolve subscription links once, up front
	bindings := routing.Resolve(table, outputs, actions, log.Warn)
	router := routing.NewRouter(bindings, outputs, supervisor)
	router.SetLogger(log.With("component", "router"))

	// Optional event journal
	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening journal database: %w", dbErr)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		jnl, err = journal.Open(ctx, db)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		log.Info("journal enabled", "path", cfg.Journal.Path)
	}

	// Optional telemetry
	var tele *telemetry.Client
	if cfg.Telemetry.Enabled {
		tele, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := tele.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		tele.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry enabled", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	}

	wireObservers(router, supervisor, jnl, tele, log)

	// Connect to the broker named by the bridge file; retried forever
	// with exponential backoff.
	mqttClient, err := mqtt.Connect(ctx, table.Broker.Host, table.Broker.Port, cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", table.Broker.Host, table.Broker.Port),
		"client_id", cfg.MQTT.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected/resubscribed")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Subscribe every configured topic at its configured QoS. A failed
	// subscribe is logged and skipped, matching the recoverable-error
	// policy; the daemon still serves the topics that did subscribe.
	subscribed := make(map[string]bool)
	for _, sub := range table.Subscriptions {
		if subscribed[sub.Topic] {
			continue
		}
		subscribed[sub.Topic] = true
		if subErr := mqttClient.Subscribe(sub.Topic, byte(sub.QoS), router.Handle); subErr != nil {
			log.Error("can't subscribe to topic", "topic", sub.Topic, "error", subErr)
			continue
		}
		log.Info("subscribed to topic", "topic", sub.Topic, "qos", sub.QoS)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// MQTT, telemetry, journal, then GPIO line release.

	log.Info("Gray Switch stopped")
	return nil
}

// applyVerbosity maps repeated -V flags onto the logging settings.
// One -V forces debug level; two or more also switch to text format.
func applyVerbosity(cfg *config.Config, verbose int) {
	if verbose >= 1 {
		cfg.Logging.Level = "debug"
	}
	if verbose >= 2 {
		cfg.Logging.Format = "text"
	}
}

// wireObservers feeds router and supervisor events into the journal and
// telemetry sinks, when those are enabled.
func wireObservers(router *routing.Router, supervisor *action.Supervisor, jnl *journal.Journal, tele *telemetry.Client, log *logging.Logger) {
	if jnl != nil {
		router.SetOnCommand(func(topic string, cmd routing.Command) {
			if err := jnl.Record(journal.KindCommand, topic, cmd.String()); err != nil {
				log.Warn("journal write failed", "error", err)
			}
		})
	}

	if jnl != nil || tele != nil {
		router.SetOnOutput(func(e *output.Entry, value int) {
			if jnl != nil {
				if err := jnl.Record(journal.KindOutput, e.ID, strconv.Itoa(value)); err != nil {
					log.Warn("journal write failed", "error", err)
				}
			}
			if tele != nil {
				tele.WriteOutputState(e.ID, e.ChipName, e.Pin, value)
			}
		})

		supervisor.SetOnTransition(func(t action.Transition) {
			if jnl != nil {
				if err := jnl.Record(journal.KindAction, t.ActionID, string(t.State)); err != nil {
					log.Warn("journal write failed", "error", err)
				}
			}
			if tele != nil {
				tele.WriteActionState(t.ActionID, t.State == action.StateRunning, t.PID)
			}
		})
	}
}
