package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/vitaliisemenov/alert-history/internal/configschema"
	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/value"
	"github.com/vitaliisemenov/alert-history/internal/worker"
)

var (
	benchRate      float64
	benchDuration  time.Duration
	benchWorkers   int
	benchQueueSize int
	benchFormat    string
)

var benchCmd = &cobra.Command{
	Use:   "bench <tree-file>",
	Short: "Load-test a compiled tree with a synthetic event generator",
	Long: `bench builds the tree at <tree-file>, then submits synthetic
events to a worker pool at a fixed rate for the given duration, paced
by a token-bucket rate limiter so the generator itself never becomes
the bottleneck being measured. Dispatched actions are discarded; only
throughput and panic counts are reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Float64Var(&benchRate, "rate", 100, "target events per second")
	benchCmd.Flags().DurationVar(&benchDuration, "duration", 10*time.Second, "how long to generate events")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 4, "worker pool size")
	benchCmd.Flags().IntVar(&benchQueueSize, "queue-size", 1024, "worker pool queue size")
	benchCmd.Flags().StringVar(&benchFormat, "format", "", "tree file format: json, yaml (default: inferred from extension)")
}

func runBench(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	format := benchFormat
	if format == "" {
		format = formatFromExtension(path)
	}

	doc, err := configschema.Parse(format, data)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	nodeCfg, err := doc.ToNodeConfig()
	if err != nil {
		return fmt.Errorf("schema conversion: %w", err)
	}

	builder := matcher.NewTreeBuilder(matcher.NewRegexCache(1000))
	manager, err := matcher.NewManager(builder, nodeCfg, nil, nil)
	if err != nil {
		return fmt.Errorf("compile tree: %w", err)
	}

	bus := dispatcher.NewChannelBus(benchQueueSize, nil, nil)
	go drain(bus)

	pool := worker.NewPool(benchWorkers, benchQueueSize, manager, bus, nil, nil)
	pool.Start()

	burst := int(benchRate)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(benchRate), burst)

	ctx, cancel := context.WithTimeout(cmd.Context(), benchDuration)
	defer cancel()

	start := time.Now()
	submitted := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		if err := pool.Submit(syntheticEvent(submitted)); err != nil {
			break
		}
		submitted++
	}

	pool.Close()
	elapsed := time.Since(start)

	fmt.Printf("submitted=%d processed=%d panics=%d elapsed=%s throughput=%.1f/s\n",
		submitted, pool.Processed(), pool.Panics(), elapsed, float64(pool.Processed())/elapsed.Seconds())

	return nil
}

func syntheticEvent(seq int) event.Event {
	payload := value.NewObject()
	payload.Set("seq", value.Int(int64(seq)))
	return event.New("bench", payload, value.NewObject())
}

// drain discards every action published on bus so the bench run isn't
// bottlenecked by a consumer-less channel filling up.
func drain(bus *dispatcher.ChannelBus) {
	for range bus.Out() {
	}
}
