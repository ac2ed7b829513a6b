package perf

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/util"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd is a performance testing tool measuring request latency
	// against a running core
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the core connection",
		RunE:    run,
		PreRunE: processPerfConfig,
	}

	perfService  = "core"
	perfMethod   = "ping"
	perfThreads  = 10
	perfRequests = 1000
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connector flags
	util.SetupConnectorFlags(PerfCmd)

	// add flags
	key := "service"
	PerfCmd.Flags().String(key, "core", util.WrapString("Service to call"))
	key = "method"
	PerfCmd.Flags().String(key, "ping", util.WrapString("Method to call"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "requests"
	PerfCmd.Flags().Int(key, 1000, util.WrapString("Total number of requests to send"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfService = viper.GetString("service")
	perfMethod = viper.GetString("method")
	perfThreads = viper.GetInt("threads")
	perfRequests = viper.GetInt("requests")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	c, err := util.NewConnector()
	if err != nil {
		return err
	}
	defer c.Disconnect()

	timer := gometrics.NewTimer()
	var failures atomic.Uint64

	perRequest := connector.Request{Service: perfService, Method: perfMethod}

	var wg sync.WaitGroup
	requestsPerWorker := perfRequests / perfThreads
	if requestsPerWorker < 1 {
		requestsPerWorker = 1
	}

	start := time.Now()
	for i := 0; i < perfThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requestsPerWorker; j++ {
				timer.Time(func() {
					if resp, err := c.Request(perRequest); err != nil || !resp.Success {
						failures.Add(1)
					}
				})
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Print results
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("\nBenchmark %s.%s\n", perfService, perfMethod)
	fmt.Printf("  %-12s: %d\n", "requests", timer.Count())
	fmt.Printf("  %-12s: %d\n", "failures", failures.Load())
	fmt.Printf("  %-12s: %v\n", "elapsed", elapsed.Round(time.Millisecond))
	fmt.Printf("  %-12s: %.1f req/s\n", "throughput", float64(timer.Count())/elapsed.Seconds())
	fmt.Printf("  %-12s: %v\n", "mean", time.Duration(timer.Mean()))
	fmt.Printf("  %-12s: %v\n", "p50", time.Duration(ps[0]))
	fmt.Printf("  %-12s: %v\n", "p95", time.Duration(ps[1]))
	fmt.Printf("  %-12s: %v\n", "p99", time.Duration(ps[2]))

	// Optionally save as CSV
	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeCSV(csvPath, timer, failures.Load(), elapsed); err != nil {
			return fmt.Errorf("failed to write csv: %v", err)
		}
		fmt.Printf("\nresults saved to %s\n", csvPath)
	}

	return nil
}

// writeCSV exports the benchmark results to a CSV file
func writeCSV(path string, timer gometrics.Timer, failures uint64, elapsed time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"requests", "failures", "elapsed_ms", "mean_us", "p50_us", "p95_us", "p99_us"}); err != nil {
		return err
	}
	return w.Write([]string{
		fmt.Sprintf("%d", timer.Count()),
		fmt.Sprintf("%d", failures),
		fmt.Sprintf("%d", elapsed.Milliseconds()),
		fmt.Sprintf("%.1f", timer.Mean()/1000),
		fmt.Sprintf("%.1f", ps[0]/1000),
		fmt.Sprintf("%.1f", ps[1]/1000),
		fmt.Sprintf("%.1f", ps[2]/1000),
	})
}
