package loadgen

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cfg := Config{}
	var ci bool
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive synthetic forum traffic against a running API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := Run(cmd.Context(), cfg)
			if ci {
				writeCIResult(cmd.OutOrStdout(), res, err)
			} else {
				writeSummary(cmd.OutOrStdout(), cfg, res)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile: read, write, auth or mixed")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "how long to generate traffic")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "requests per second across all workers")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 4, "number of signed-in workers")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 42, "random seed for action selection")
	cmd.Flags().BoolVar(&ci, "ci", false, "machine-readable JSON output")
	return cmd
}

func writeCIResult(w io.Writer, res Result, err error) {
	out := struct {
		OK     bool   `json:"ok"`
		Error  string `json:"error,omitempty"`
		Result Result `json:"result"`
	}{OK: err == nil && res.Failures == 0, Result: res}
	if err != nil {
		out.Error = err.Error()
	}
	_ = json.NewEncoder(w).Encode(out)
}

func writeSummary(w io.Writer, cfg Config, res Result) {
	_, _ = fmt.Fprintf(w, "profile=%s requests=%d failures=%d elapsed=%s\n",
		normalizeProfile(cfg.Profile), res.TotalRequests, res.Failures, res.Elapsed.Round(time.Millisecond))
	for _, k := range sortedKeys(res.StatusClasses) {
		_, _ = fmt.Fprintf(w, "  status %-5s %d\n", k, res.StatusClasses[k])
	}
	for _, k := range sortedKeys(res.Actions) {
		_, _ = fmt.Fprintf(w, "  action %-20s %d\n", k, res.Actions[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
