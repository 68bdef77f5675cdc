package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
)

var (
	enumerateMaxResults int
	enumerateDepth      int
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate [query]",
	Short: "List ranked candidate addresses for a query without scoring them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		candidates, err := pipeline.EnumerateCandidates(args[0], enumerateMaxResults, enumerateDepth)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(candidates)
	},
}

func init() {
	enumerateCmd.Flags().IntVar(&enumerateMaxResults, "max-results", 20, "maximum number of candidates to return")
	enumerateCmd.Flags().IntVar(&enumerateDepth, "depth", 2, "candidate expansion depth")
	rootCmd.AddCommand(enumerateCmd)
}
