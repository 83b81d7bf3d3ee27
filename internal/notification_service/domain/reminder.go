package domain

import (
	"fmt"
	"time"
)

// LeadTime is how long before a booking's start a reminder fires.
type LeadTime time.Duration

const (
	OneHour    = LeadTime(time.Hour)
	TenMinutes = LeadTime(10 * time.Minute)
)

// ReminderLeadTimes is the fixed, ordered set of reminders scheduled per booking.
var ReminderLeadTimes = []LeadTime{OneHour, TenMinutes}

// Duration returns the lead time as a time.Duration.
func (l LeadTime) Duration() time.Duration { return time.Duration(l) }

// FireAt returns the instant the reminder for a booking starting at start should fire.
func (l LeadTime) FireAt(start time.Time) time.Time {
	return start.Add(-l.Duration())
}

// String returns the stable identifier used in payloads, logs and metric labels.
func (l LeadTime) String() string {
	switch l {
	case OneHour:
		return "one_hour"
	case TenMinutes:
		return "ten_minutes"
	case 0:
		return ""
	default:
		return time.Duration(l).String()
	}
}

// Label is the human wording used inside message bodies.
func (l LeadTime) Label() string {
	switch l {
	case OneHour:
		return "1 hour"
	case TenMinutes:
		return "10 mins"
	default:
		return fmt.Sprintf("%d mins", int(time.Duration(l).Minutes()))
	}
}

func (l LeadTime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts only the identifiers of ReminderLeadTimes and the empty string.
func (l *LeadTime) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*l = 0
		return nil
	}
	for _, known := range ReminderLeadTimes {
		if s == known.String() {
			*l = known
			return nil
		}
	}
	return fmt.Errorf("unknown lead time %q", s)
}

// TemplateComponent is one positional body parameter of a template message.
type TemplateComponent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TemplatePayload names a pre-approved template and its ordered body parameters.
type TemplatePayload struct {
	Template   string              `json:"template"`
	Components []TemplateComponent `json:"components"`
}

// NewTemplatePayload wraps ordered text parameters as template components.
func NewTemplatePayload(name string, params []string) *TemplatePayload {
	components := make([]TemplateComponent, len(params))
	for i, p := range params {
		components[i] = TemplateComponent{Type: "text", Text: p}
	}
	return &TemplatePayload{Template: name, Components: components}
}

// Params returns the ordered parameter texts.
func (t *TemplatePayload) Params() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.Components))
	for i, c := range t.Components {
		out[i] = c.Text
	}
	return out
}

// Deliverable reports whether a template name and at least one parameter are present.
func (t *TemplatePayload) Deliverable() bool {
	return t != nil && t.Template != "" && len(t.Components) > 0
}

// ScheduledReminder is the single payload handed to the delay queue and later
// posted back to the reminder callback endpoint.
type ScheduledReminder struct {
	BookingID      string           `json:"bookingId,omitempty"`
	LeadTime       LeadTime         `json:"leadTime,omitempty"`
	Phone          string           `json:"phone"`
	Message        string           `json:"message,omitempty"`
	TemplateParams *TemplatePayload `json:"templateParams,omitempty"`
}

// ReminderJob is one reminder handed to the delay queue together with its delay.
type ReminderJob struct {
	DeduplicationID string
	Delay           time.Duration
	Reminder        ScheduledReminder
}
