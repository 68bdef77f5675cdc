package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/babelsearch/internal/babel/generator"
	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
)

var generateRandom bool

var generateCmd = &cobra.Command{
	Use:   "generate [address]",
	Short: "Deterministically materialize the page at an address",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := ""
		switch {
		case len(args) == 1:
			address = args[0]
		case generateRandom:
			address = generator.RandomAddress()
		default:
			return fmt.Errorf("babelctl: generate requires an address or --random")
		}
		fmt.Println(pipeline.Generate(address))
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateRandom, "random", false, "generate the page at the canonical seed-derived address (the same on every run)")
	rootCmd.AddCommand(generateCmd)
}
