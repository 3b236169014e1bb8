package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gramcare-backend/config"
	"gramcare-backend/models"
	"gramcare-backend/services"
)

func newReplyCmd() *cobra.Command {
	var (
		channel  string
		from     string
		language string
	)

	cmd := &cobra.Command{
		Use:   "reply <text>",
		Short: "Run one conversation turn offline and print the reply payload",
		Example: `  gramcare reply "emergency help hospital"
  gramcare reply --channel sms "alerts delhi"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := models.MessageChannel(strings.ToLower(channel))
			switch ch {
			case models.ChannelWeb, models.ChannelSMS, models.ChannelWhatsApp:
			default:
				return fmt.Errorf("unknown channel %q (web, sms or whatsapp)", channel)
			}

			if err := config.Load(); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx := context.Background()
			a, err := buildApp(ctx, config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			payload := a.chatbot.HandleInboundMessage(ctx, ch, from, strings.Join(args, " "), language)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", string(models.ChannelWeb), "channel to format for: web, sms or whatsapp")
	cmd.Flags().StringVar(&from, "from", "cli", "sender identifier")
	cmd.Flags().StringVarP(&language, "language", "l", services.LanguageAuto, "reply language code, or auto")

	return cmd
}
