package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the notification service and its tooling.
// Every key can be overridden with an APP_ prefixed environment variable,
// e.g. APP_TEXTLK_API_TOKEN.
type Config struct {
	ServerPort  int    `mapstructure:"SERVER_PORT"`
	MetricsPort int    `mapstructure:"METRICS_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`

	// PublicBaseURL is where the delay queue reaches this service, e.g. https://notify.example.com
	PublicBaseURL       string        `mapstructure:"PUBLIC_BASE_URL"`
	OutboundCallTimeout time.Duration `mapstructure:"OUTBOUND_CALL_TIMEOUT"`

	// SMS gateway
	TextLKAPIURL   string `mapstructure:"TEXTLK_API_URL"`
	TextLKAPIToken string `mapstructure:"TEXTLK_API_TOKEN"`
	TextLKSenderID string `mapstructure:"TEXTLK_SENDER_ID"`
	// SMSMockEnabled routes SMS through the in-process mock when no token is set. Local runs only.
	SMSMockEnabled bool `mapstructure:"SMS_MOCK_ENABLED"`

	// Template channel
	WhatsAppAPIURL               string `mapstructure:"WHATSAPP_API_URL"`
	WhatsAppAccessToken          string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID        string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppTemplateConfirmation string `mapstructure:"WHATSAPP_TEMPLATE_CONFIRMATION"`
	WhatsAppTemplateReminder     string `mapstructure:"WHATSAPP_TEMPLATE_REMINDER"`
	WhatsAppLanguageCode         string `mapstructure:"WHATSAPP_LANGUAGE_CODE"`

	// Delay queue
	QStashURL               string `mapstructure:"QSTASH_URL"`
	QStashToken             string `mapstructure:"QSTASH_TOKEN"`
	QStashCurrentSigningKey string `mapstructure:"QSTASH_CURRENT_SIGNING_KEY"`
	QStashNextSigningKey    string `mapstructure:"QSTASH_NEXT_SIGNING_KEY"`

	// Inbound webhook verification; empty disables it.
	CalWebhookSecret string `mapstructure:"CAL_WEBHOOK_SECRET"`

	// Region
	RegionCallingCode      string `mapstructure:"REGION_CALLING_CODE"`
	RegionTrunkPrefix      string `mapstructure:"REGION_TRUNK_PREFIX"`
	RegionUTCOffsetMinutes int    `mapstructure:"REGION_UTC_OFFSET_MINUTES"`

	// Message content
	BrandName         string `mapstructure:"BRAND_NAME"`
	SupportContactURL string `mapstructure:"SUPPORT_CONTACT_URL"`
	RescheduleBaseURL string `mapstructure:"RESCHEDULE_BASE_URL"`

	// Optional outcome event stream; empty disables it.
	NATSUrl string `mapstructure:"NATS_URL"`
}

// WhatsAppEnabled reports whether the template channel has the credentials it needs.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppAccessToken != "" && c.WhatsAppPhoneNumberID != ""
}

// DelayQueueEnabled reports whether reminders can be handed to the delay queue.
func (c *Config) DelayQueueEnabled() bool {
	return c.QStashToken != "" && c.PublicBaseURL != ""
}

// CallbackURL is the reminder callback endpoint the delay queue posts to.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/webhooks/reminder"
}

var defaults = map[string]any{
	"SERVER_PORT":           8080,
	"METRICS_PORT":          9090,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"PUBLIC_BASE_URL":       "",
	"OUTBOUND_CALL_TIMEOUT": 10 * time.Second,

	"TEXTLK_API_URL":   "https://app.text.lk/api/v3/sms/send",
	"TEXTLK_API_TOKEN": "",
	"TEXTLK_SENDER_ID": "TextLKDemo",
	"SMS_MOCK_ENABLED": false,

	"WHATSAPP_API_URL":               "https://graph.facebook.com/v22.0",
	"WHATSAPP_ACCESS_TOKEN":          "",
	"WHATSAPP_PHONE_NUMBER_ID":       "",
	"WHATSAPP_TEMPLATE_CONFIRMATION": "meeting_confirmation",
	"WHATSAPP_TEMPLATE_REMINDER":     "meeting_reminder",
	"WHATSAPP_LANGUAGE_CODE":         "en_US",

	"QSTASH_URL":                 "https://qstash.upstash.io",
	"QSTASH_TOKEN":               "",
	"QSTASH_CURRENT_SIGNING_KEY": "",
	"QSTASH_NEXT_SIGNING_KEY":    "",

	"CAL_WEBHOOK_SECRET": "",

	"REGION_CALLING_CODE":       "94",
	"REGION_TRUNK_PREFIX":       "0",
	"REGION_UTC_OFFSET_MINUTES": 330,

	"BRAND_NAME":          "br.lk",
	"SUPPORT_CONTACT_URL": "https://wa.me/94777895327",
	"RESCHEDULE_BASE_URL": "https://cal.com/reschedule/",

	"NATS_URL": "",
}

// Load reads config.defaults.yaml (if present) from the usual config paths,
// layers APP_ environment variables on top and unmarshals the result.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Printf("%s: config.defaults.yaml not found; using defaults and environment variables", serviceName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
