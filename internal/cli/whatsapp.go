package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/brlk/golang_services/internal/notification_service/provider"
	"github.com/brlk/golang_services/internal/platform/config"
	"github.com/brlk/golang_services/internal/platform/logger"
	"github.com/spf13/cobra"
)

func newWhatsAppProvider(cmd *cobra.Command, cfg *config.Config) (*provider.WhatsAppProvider, error) {
	if !cfg.WhatsAppEnabled() {
		return nil, errors.New("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	return provider.NewWhatsAppProvider(log, cfg.WhatsAppAPIURL, cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppLanguageCode, newHTTPClient(cfg)), nil
}

func newTestTemplateCmd() *cobra.Command {
	var (
		phone    string
		template string
		params   []string
	)

	c := &cobra.Command{
		Use:   "test-template",
		Short: "Send one template message directly through the WhatsApp provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wa, err := newWhatsAppProvider(cmd, cfg)
			if err != nil {
				return err
			}
			if template == "" {
				template = cfg.WhatsAppTemplateConfirmation
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Template: %s (%s)\nRecipient: %s\n", template, cfg.WhatsAppLanguageCode, phone)

			id, err := wa.SendTemplate(cmd.Context(), phone, domain.NewTemplatePayload(template, params))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sent. Message id: %s\n", id)
			return nil
		},
	}

	c.Flags().StringVar(&phone, "phone", defaultTestPhone, "recipient phone number")
	c.Flags().StringVar(&template, "template", "", "template name (defaults to WHATSAPP_TEMPLATE_CONFIRMATION)")
	c.Flags().StringSliceVar(&params, "param", []string{"Test User", "2026-01-22 10:00", "https://meet.google.com/test-link"},
		"positional body parameter, repeatable")
	return c
}

func newListTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-templates",
		Short: "List the message templates of the configured WhatsApp Business Account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wa, err := newWhatsAppProvider(cmd, cfg)
			if err != nil {
				return err
			}

			listing, err := wa.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pn := listing.PhoneNumber
			fmt.Fprintf(out, "Phone number: %s (%s), quality %s\n", pn.DisplayPhoneNumber, pn.VerifiedName, pn.QualityRating)
			fmt.Fprintf(out, "Business account: %s\n\n", pn.WhatsAppBusinessAccountID)
			if len(listing.Templates) == 0 {
				fmt.Fprintln(out, "No templates found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATUS\tLANGUAGE\tCATEGORY")
			for _, t := range listing.Templates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Status, t.Language, strings.ToLower(t.Category))
			}
			return tw.Flush()
		},
	}
}
