package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
)

var (
	searchMaxResults int
	searchMode       string
	searchMinScore   float64
	searchTimeout    time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a coherence-ranked search over Babel space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, closeLog, err := newPipeline()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		result, err := p.Search(ctx, args[0], searchMaxResults, domain.Mode(searchMode), searchMinScore)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 10, "maximum number of results to return")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(domain.ModeLocal), "retrieval mode: local, remote, or hybrid")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results below this overall coherence score")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "overall command timeout")
	rootCmd.AddCommand(searchCmd)
}
