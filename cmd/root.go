package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute is the main entry point called from main.go.
func Execute() {
	rootCmd := &cobra.Command{
		Use:   "gramcare",
		Short: "GramCare multilingual health assistant",
		Long:  "gramcare serves the GramCare health assistant over web chat, SMS and WhatsApp.",
		// Running gramcare with no subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newReplyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
