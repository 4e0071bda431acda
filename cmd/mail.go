package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-management/internal/mailer"
	"github.com/frahmantamala/hr-management/pkg/logger"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Mail delivery commands",
}

var mailTestCmd = &cobra.Command{
	Use:   "test [recipient]",
	Short: "Send a test message through the mail worker pool",
	Long:  `Send a test message using the configured mail API (or the log when none is set) and wait for delivery.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTestMail(args[0])
	},
}

var (
	mailAPIURL     string
	mailMaxWorkers int
)

func sendTestMail(to string) error {
	cfg, err := setup()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	client := mailer.NewClient(mailer.Config{
		APIURL:      getStringFlag(mailAPIURL, cfg.Mail.APIURL),
		APIKey:      cfg.Mail.APIKey,
		From:        cfg.Mail.From,
		FrontendURL: cfg.Mail.FrontendURL,
		MaxWorkers:  getIntFlag(mailMaxWorkers, cfg.Mail.MaxWorkers),
		QueueSize:   cfg.Mail.QueueSize,
	}, log)

	if err := client.Send(mailer.Message{
		To:      to,
		Subject: "HR Management test message",
		Text:    "Mail delivery is configured correctly.",
	}); err != nil {
		client.Shutdown()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		client.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		log.Info("test mail processed", "to", to)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for mail delivery")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailTestCmd.Flags().StringVar(&mailAPIURL, "api-url", "", "Mail API URL (overrides config)")
	mailTestCmd.Flags().IntVar(&mailMaxWorkers, "max-workers", 0, "Maximum number of mail workers (overrides config)")

	mailCmd.AddCommand(mailTestCmd)
}
