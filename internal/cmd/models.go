package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the configured council",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, member := range cfg.Council.Members {
			if member == cfg.Council.Chairman {
				fmt.Fprintf(out, "%s (chairman)\n", member)
			} else {
				fmt.Fprintln(out, member)
			}
		}
		fmt.Fprintf(out, "\ntitle model: %s\n", cfg.Council.TitleModel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
