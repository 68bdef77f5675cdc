package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
)

var decodeQuery string

var decodeCmd = &cobra.Command{
	Use:   "decode [address] [text]",
	Short: "Score arbitrary text against a query as if it were a decoded page",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		text := ""
		if len(args) == 2 {
			text = args[1]
		} else {
			text = pipeline.Generate(address)
		}

		p, _, closeLog, err := newPipeline()
		if err != nil {
			return err
		}
		defer closeLog()
		dp := p.Decode(address, text, decodeQuery)
		return json.NewEncoder(os.Stdout).Encode(dp)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeQuery, "query", "", "query to score the text against")
	rootCmd.AddCommand(decodeCmd)
}
