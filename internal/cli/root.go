package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brlk/golang_services/internal/platform/config"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

const cliName = "notifyctl"

// loadConfig is replaceable so tests can inject configuration without files.
var loadConfig = func() (*config.Config, error) { return config.Load(cliName) }

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           cliName,
		Short:         "Operator tooling for the booking notification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSendTestWebhookCmd())
	root.AddCommand(newSendTestReminderCmd())
	root.AddCommand(newSendSMSCmd())
	root.AddCommand(newTestTemplateCmd())
	root.AddCommand(newListTemplatesCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serviceURL picks the --url flag, then PUBLIC_BASE_URL, then the local server port.
func serviceURL(flagValue string, cfg *config.Config) string {
	switch {
	case flagValue != "":
		return strings.TrimRight(flagValue, "/")
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	default:
		return fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
	}
}

func newHTTPClient(cfg *config.Config) *http.Client {
	timeout := cfg.OutboundCallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
