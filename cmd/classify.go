package cmd

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gramcare-backend/utils"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <text>",
		Short:   "Print the health category and urgency of a message",
		Example: `  gramcare classify "I have fever and cough"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent := utils.NewIntentClassifier().Classify(strings.Join(args, " "))
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(intent)
		},
	}
}
