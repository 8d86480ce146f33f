package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaocao12306/gamewiki-sub002/internal/config"
	"github.com/xiaocao12306/gamewiki-sub002/internal/telemetry"
)

type statsOptions struct {
	dbPath string
	from   string
	to     string
	format string
}

func newStatsCmd() *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show accumulated search telemetry",
		Long: `Show intent frequencies and latency distribution from the local
telemetry database.

Examples:
  gamewiki stats
  gamewiki stats --from 2026-08-01 --to 2026-08-30
  gamewiki stats --db /var/lib/gamewiki/telemetry.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	today := time.Now().Format("2006-01-02")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Telemetry database path (default from config)")
	cmd.Flags().StringVar(&opts.from, "from", today, "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", today, "End date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runStats(cmd *cobra.Command, opts statsOptions) error {
	dbPath := opts.dbPath
	if dbPath == "" {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}
		dbPath = cfg.Telemetry.DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no telemetry database configured; set telemetry.db_path or pass --db")
	}

	ts, err := telemetry.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer ts.Close()

	intents, err := ts.GetIntentCounts(opts.from, opts.to)
	if err != nil {
		return err
	}
	latencies, err := ts.GetLatencyCounts(opts.from, opts.to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			From      string                             `json:"from"`
			To        string                             `json:"to"`
			Intents   map[string]int64                   `json:"intents"`
			Latencies map[telemetry.LatencyBucket]int64 `json:"latencies"`
		}{opts.from, opts.to, intents, latencies})
	}

	fmt.Fprintf(out, "Telemetry %s .. %s\n\n", opts.from, opts.to)

	fmt.Fprintln(out, "Intents:")
	if len(intents) == 0 {
		fmt.Fprintln(out, "  (none recorded)")
	}
	names := make([]string, 0, len(intents))
	for name := range intents {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return intents[names[i]] > intents[names[j]] })
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %d\n", name, intents[name])
	}

	fmt.Fprintln(out, "\nLatency distribution:")
	for _, bucket := range []telemetry.LatencyBucket{
		telemetry.LatencyUnder10ms,
		telemetry.Latency10to50ms,
		telemetry.Latency50to100ms,
		telemetry.Latency100to500ms,
		telemetry.LatencyOver500ms,
	} {
		fmt.Fprintf(out, "  %-12s %d\n", bucket, latencies[bucket])
	}
	return nil
}
