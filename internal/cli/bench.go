package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/metrics/export/prometheus"
)

type benchOptions struct {
	ids         int
	concurrency int
	ops         int
}

func (c *CLI) newBenchCmd() *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-test the flag set store with concurrent loads and grants",
		Long: `bench seeds ids with random flag sets, then runs a load phase and a
grant phase with concurrent workers and prints throughput and latency
percentiles. Without a Redis address it runs against an in-process miniredis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ids <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return fmt.Errorf("ids, concurrency, and ops must be > 0")
			}
			return c.runBench(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.ids, "ids", 10000, "number of ids to seed")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 50000, "operations per phase (load + grant)")
	return cmd
}

func (c *CLI) runBench(cmd *cobra.Command, opts benchOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	reg, err := c.registry()
	if err != nil {
		return err
	}
	if reg.Width() == 0 {
		return fmt.Errorf("bench needs at least one flag besides the sentinel")
	}

	addr := c.cfg.Redis.Addr
	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	defer client.Close()

	st, err := c.newStore(client, reg)
	if err != nil {
		return err
	}

	flags := primitives(reg)
	ids := make([]string, opts.ids)
	fmt.Fprintf(out, "seeding %d ids...\n", opts.ids)
	startSeed := time.Now()
	seed := rand.New(rand.NewSource(1))
	for i := range ids {
		ids[i] = fmt.Sprintf("bench-%d", i)
		if err := st.Save(ctx, ids[i], randomSet(seed, reg, flags)); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loadStats := runPhase(opts, func(r *rand.Rand) error {
		_, err := st.Load(ctx, ids[r.Intn(len(ids))])
		return err
	})
	grantStats := runPhase(opts, func(r *rand.Rand) error {
		_, err := st.Grant(ctx, ids[r.Intn(len(ids))], flags[r.Intn(len(flags))])
		return err
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "load", loadStats)
	printStats(out, "grant", grantStats)

	if reg.Metrics().Enabled() {
		fmt.Fprintln(out, "---- metrics ----")
		fmt.Fprint(out, prometheus.NewPrometheusExporter(reg).Render())
	}
	c.logger.Info("bench finished",
		zap.Int("ids", opts.ids),
		zap.Int64("load_failures", loadStats.failures),
		zap.Int64("grant_failures", grantStats.failures),
	)
	return nil
}

func primitives(reg *goFlags.Registry) []goFlags.Set {
	var out []goFlags.Set
	for _, d := range reg.Declarations() {
		if bit, ok := reg.BitPosition(d.Name); ok && bit != goFlags.SentinelBit {
			out = append(out, reg.MustFlag(d.Name))
		}
	}
	return out
}

func randomSet(r *rand.Rand, reg *goFlags.Registry, flags []goFlags.Set) goFlags.Set {
	v := reg.Zero()
	for _, f := range flags {
		if r.Intn(2) == 0 {
			v = v.Or(f)
		}
	}
	return v
}

func runPhase(opts benchOptions, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
