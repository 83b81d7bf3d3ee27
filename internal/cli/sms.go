package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/brlk/golang_services/internal/notification_service/provider"
	"github.com/brlk/golang_services/internal/platform/logger"
	"github.com/spf13/cobra"
)

func newSendSMSCmd() *cobra.Command {
	var (
		to      string
		message string
		at      string
	)

	c := &cobra.Command{
		Use:   "send-sms",
		Short: "Send one SMS through the configured gateway",
		Long: "Sends --message to --to via Text.lk. --at schedules delivery; it accepts RFC3339 or\n" +
			"\"YYYY-MM-DD HH:MM\" in the configured region's local time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.TextLKAPIToken == "" {
				return errors.New("TEXTLK_API_TOKEN is not set")
			}
			region := domain.NewRegion(cfg.RegionCallingCode, cfg.RegionTrunkPrefix, cfg.RegionUTCOffsetMinutes)

			var scheduleAt time.Time
			if at != "" {
				scheduleAt, err = parseScheduleTime(at, region)
				if err != nil {
					return err
				}
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "text")
			sms := provider.NewTextLKProvider(log, cfg.TextLKAPIURL, cfg.TextLKAPIToken, cfg.TextLKSenderID, region, newHTTPClient(cfg))

			resp, err := sms.Send(cmd.Context(), provider.SendRequestDetails{
				Recipient:  to,
				Content:    message,
				ScheduleAt: scheduleAt,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s\n", resp.ProviderStatus)
			if resp.ProviderMessageID != "" {
				fmt.Fprintf(out, "Message id: %s\n", resp.ProviderMessageID)
			}
			if !scheduleAt.IsZero() {
				fmt.Fprintf(out, "Scheduled for: %s (%s)\n", region.FormatLocal(scheduleAt), region.Location)
			}
			return nil
		},
	}

	c.Flags().StringVar(&to, "to", "", "recipient phone number, e.g. 94771234567")
	c.Flags().StringVar(&message, "message", "", "message body")
	c.Flags().StringVar(&at, "at", "", "schedule time (RFC3339 or region-local \"YYYY-MM-DD HH:MM\")")
	_ = c.MarkFlagRequired("to")
	_ = c.MarkFlagRequired("message")
	return c
}

func parseScheduleTime(s string, region domain.Region) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	loc := region.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(domain.LocalTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want RFC3339 or %q", s, domain.LocalTimeLayout)
	}
	return t, nil
}
