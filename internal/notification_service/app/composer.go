package app

import (
	"fmt"
	"strings"

	"github.com/brlk/golang_services/internal/notification_service/domain"
)

// ComposerConfig carries the static content the composer renders into every message.
type ComposerConfig struct {
	Region               domain.Region
	BrandName            string
	SupportContactURL    string
	RescheduleBaseURL    string
	ConfirmationTemplate string
	ReminderTemplate     string
}

// Message is one notification moment rendered for both channels.
type Message struct {
	LeadTime domain.LeadTime // zero for the confirmation
	SMSBody  string
	Template *domain.TemplatePayload
}

// Messages holds the confirmation plus one reminder per lead time, in lead-time order.
type Messages struct {
	Confirmation Message
	Reminders    []Message
}

// Composer renders deterministic message bodies and template parameters.
type Composer struct {
	cfg ComposerConfig
}

func NewComposer(cfg ComposerConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Region returns the region used for time formatting.
func (c *Composer) Region() domain.Region { return c.cfg.Region }

// Compose builds all three messages for a booking. Reminders are always composed;
// whether they are sent is decided by the caller.
func (c *Composer) Compose(event domain.BookingEvent, _ domain.NormalizedPhone) Messages {
	name := displayName(event.AttendeeName)
	local := c.cfg.Region.FormatLocal(event.StartTime)

	msgs := Messages{
		Confirmation: Message{
			SMSBody:  c.confirmationBody(name, local, event),
			Template: domain.NewTemplatePayload(c.cfg.ConfirmationTemplate, []string{name, local, event.MeetingLink}),
		},
		Reminders: make([]Message, 0, len(domain.ReminderLeadTimes)),
	}
	for _, lead := range domain.ReminderLeadTimes {
		msgs.Reminders = append(msgs.Reminders, Message{
			LeadTime: lead,
			SMSBody:  c.reminderBody(lead, name, local, event),
			Template: domain.NewTemplatePayload(c.cfg.ReminderTemplate, []string{name, lead.Label(), event.MeetingLink}),
		})
	}
	return msgs
}

// RescheduleLink builds the attendee's reschedule URL for a booking.
func (c *Composer) RescheduleLink(bookingID string) string {
	if bookingID == "" {
		return strings.TrimRight(c.cfg.RescheduleBaseURL, "/")
	}
	return c.cfg.RescheduleBaseURL + bookingID
}

func (c *Composer) confirmationBody(name, local string, event domain.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\nYour appointment is successfully scheduled.\nTime: %s\n\n", name, local)
	fmt.Fprintf(&b, "Join here: %s\n", event.MeetingLink)
	fmt.Fprintf(&b, "Need to reschedule? %s\n", c.RescheduleLink(event.BookingID))
	fmt.Fprintf(&b, "Thank you for choosing %s. See you soon", c.cfg.BrandName)
	return b.String()
}

func (c *Composer) reminderBody(lead domain.LeadTime, name, local string, event domain.BookingEvent) string {
	var b strings.Builder
	switch lead {
	case domain.TenMinutes:
		fmt.Fprintf(&b, "Reminder: Your meeting with %s starts in %s.\n\n", c.cfg.BrandName, lead.Label())
		fmt.Fprintf(&b, "Click to join: %s\n", event.MeetingLink)
		fmt.Fprintf(&b, "Need to change or cancel?\nContact us on WhatsApp: %s", c.cfg.SupportContactURL)
	default:
		fmt.Fprintf(&b, "Hello %s,\nThis is a reminder that your meeting with %s starts in %s (%s).\n\n", name, c.cfg.BrandName, lead.Label(), local)
		fmt.Fprintf(&b, "Join Link: %s\n", event.MeetingLink)
		fmt.Fprintf(&b, "If you need to reschedule or cancel: %s\n", c.RescheduleLink(event.BookingID))
		fmt.Fprintf(&b, "or let us know via WhatsApp: %s", c.cfg.SupportContactURL)
	}
	return b.String()
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "there"
	}
	return name
}
