package cmd

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	appconfig "github.com/vitaliisemenov/alert-history/internal/config"
	"github.com/vitaliisemenov/alert-history/internal/configschema"
	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/metrics"
	"github.com/vitaliisemenov/alert-history/internal/opsserver"
	"github.com/vitaliisemenov/alert-history/internal/worker"
	"github.com/vitaliisemenov/alert-history/pkg/logger"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matcher daemon",
	Long: `serve loads the daemon configuration, builds the initial
matcher tree, and starts the worker pool and ops server. It reads
newline-delimited JSON events from stdin, submits each to the worker
pool, and prints the resulting ProcessedEvent as newline-delimited JSON
on stdout. The tree source is polled for changes at the configured
interval and hot-reloaded on the running Manager.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "daemon configuration file (YAML)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(cfg.Log)

	initial, _, err := loadTree(cfg.Tree.Path, string(cfg.Tree.Format))
	if err != nil {
		return fmt.Errorf("load initial tree: %w", err)
	}

	builder := matcher.NewTreeBuilder(matcher.NewRegexCache(1000))
	manager, err := matcher.NewManager(builder, initial, log, nil)
	if err != nil {
		return fmt.Errorf("build initial tree: %w", err)
	}

	var registry *prometheus.Registry
	var collector *metrics.Metrics
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		collector = metrics.New(registry)
	}

	bus := dispatcher.NewChannelBus(cfg.Worker.QueueSize, log, collector)
	pool := worker.NewPool(cfg.Worker.PoolSize, cfg.Worker.QueueSize, manager, bus, log, collector)
	pool.OnProcessed(func(ev event.Event, pn matcher.ProcessedNode) {
		encoded, err := json.Marshal(pn)
		if err != nil {
			log.Error("serve: marshal processed event failed", "error", err, "trace_id", ev.TraceID)
			return
		}
		fmt.Println(string(encoded))
	})
	pool.Start()
	defer pool.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if registry != nil {
		ops := opsserver.NewServer(cfg.Ops.Addr, manager, registry, bus, log)
		if err := ops.Start(); err != nil {
			return fmt.Errorf("start ops server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			ops.Shutdown(shutdownCtx)
		}()
	}

	go pollTree(ctx, cfg.Tree, manager, log)

	return consumeEvents(ctx, pool, log)
}

// loadTree reads, schema-validates, and converts the tree source at
// path into a compiled-ready NodeConfig, returning the raw bytes
// alongside for change detection.
func loadTree(path, format string) (matcher.NodeConfig, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return matcher.NodeConfig{}, nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := configschema.Parse(format, data)
	if err != nil {
		return matcher.NodeConfig{}, nil, fmt.Errorf("schema: %w", err)
	}

	cfg, err := doc.ToNodeConfig()
	if err != nil {
		return matcher.NodeConfig{}, nil, fmt.Errorf("schema conversion: %w", err)
	}

	return cfg, data, nil
}

// pollTree re-reads the tree source every cfg.PollInterval and
// reloads the Manager when its content changes. A reload failure is
// logged and the previous snapshot keeps serving (matcher.Manager's
// contract), never aborting the poll loop.
func pollTree(ctx context.Context, cfg appconfig.TreeConfig, manager *matcher.Manager, log *slog.Logger) {
	if cfg.PollInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	lastHash := [32]byte{}
	if _, data, err := loadTree(cfg.Path, string(cfg.Format)); err == nil {
		lastHash = sha256.Sum256(data)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, data, err := loadTree(cfg.Path, string(cfg.Format))
			if err != nil {
				log.Error("serve: tree poll failed", "error", err, "path", cfg.Path)
				continue
			}

			hash := sha256.Sum256(data)
			if hash == lastHash {
				continue
			}

			if err := manager.Reload(next); err != nil {
				log.Error("serve: tree reload failed, keeping previous snapshot", "error", err, "path", cfg.Path)
				continue
			}
			lastHash = hash
			log.Info("serve: tree reloaded", "path", cfg.Path)
		}
	}
}

// consumeEvents reads newline-delimited JSON events from stdin and
// submits each to pool until ctx is cancelled or stdin is exhausted.
func consumeEvents(ctx context.Context, pool *worker.Pool, log *slog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Error("serve: malformed event, skipping", "error", err)
			continue
		}

		if err := pool.Submit(ev); err != nil {
			log.Error("serve: submit failed", "error", err, "trace_id", ev.TraceID)
		}
	}

	return scanner.Err()
}
