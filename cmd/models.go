package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/resumematch/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model identifiers that can be passed with --model",
	Run: func(_ *cobra.Command, _ []string) {
		for _, m := range ai.Models {
			if m == ai.DefaultModel {
				fmt.Printf("%s (default)\n", m)
				continue
			}
			fmt.Println(m)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
