package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"maxscale/config"
	"maxscale/models"
)

var testMailTo []string

var testMailCmd = &cobra.Command{
	Use:   "send-test-email",
	Short: "Send one message through the configured mail provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger := newLogger(cfg)

		to := cfg.Recipients
		if len(testMailTo) > 0 {
			to = testMailTo
		}

		msg := models.MailMessage{
			From:    cfg.From,
			To:      to,
			Subject: "MaxScale website mail check",
			HTML:    "<strong>The contact form can reach this inbox.</strong>",
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.MailTimeout)
		defer cancel()

		id, err := newSender(cfg, logger).Send(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send test email: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %v\n", id, to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testMailCmd)
	testMailCmd.Flags().StringSliceVar(&testMailTo, "to", nil, "Recipients to use instead of CONTACT_RECIPIENTS")
}
