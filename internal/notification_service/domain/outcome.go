package domain

import "time"

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// OutcomeStatus tags the result of one delivery or handoff attempt.
type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// DeliveryOutcome is the per-channel result of one delivery attempt.
type DeliveryOutcome struct {
	Channel           Channel       `json:"channel"`
	Status            OutcomeStatus `json:"status"`
	Reason            string        `json:"reason,omitempty"`
	ProviderMessageID string        `json:"providerMessageId,omitempty"`
}

func Sent(ch Channel, providerMessageID string) DeliveryOutcome {
	return DeliveryOutcome{Channel: ch, Status: OutcomeSent, ProviderMessageID: providerMessageID}
}

func Failed(ch Channel, reason string) DeliveryOutcome {
	return DeliveryOutcome{Channel: ch, Status: OutcomeFailed, Reason: reason}
}

func Skipped(ch Channel, reason string) DeliveryOutcome {
	return DeliveryOutcome{Channel: ch, Status: OutcomeSkipped, Reason: reason}
}

// ReminderHandoff records what happened to one reminder lead time.
type ReminderHandoff struct {
	LeadTime       LeadTime      `json:"leadTime"`
	FireAt         time.Time     `json:"fireAt"`
	DelaySeconds   int64         `json:"delaySeconds,omitempty"`
	Status         OutcomeStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
	QueueMessageID string        `json:"queueMessageId,omitempty"`
}

// ProcessingStatus is the overall classification of one booking event.
type ProcessingStatus string

const (
	StatusIgnored            ProcessingStatus = "ignored"
	StatusNoAttendee         ProcessingStatus = "no_attendee"
	StatusNonRegionalSkipped ProcessingStatus = "non_regional_skipped"
	StatusSuccess            ProcessingStatus = "success"
)

// ProcessingResult summarizes the handling of one booking event.
type ProcessingResult struct {
	Status       ProcessingStatus  `json:"status"`
	BookingID    string            `json:"bookingId,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Confirmation []DeliveryOutcome `json:"confirmation,omitempty"`
	Reminders    []ReminderHandoff `json:"reminders,omitempty"`
}

// ConfirmationOutcome returns the confirmation outcome for ch, if one was recorded.
func (r *ProcessingResult) ConfirmationOutcome(ch Channel) (DeliveryOutcome, bool) {
	for _, o := range r.Confirmation {
		if o.Channel == ch {
			return o, true
		}
	}
	return DeliveryOutcome{}, false
}

// Reminder returns the handoff recorded for lead, if any.
func (r *ProcessingResult) Reminder(lead LeadTime) (ReminderHandoff, bool) {
	for _, h := range r.Reminders {
		if h.LeadTime == lead {
			return h, true
		}
	}
	return ReminderHandoff{}, false
}

// ReminderResult is the outcome of one reminder callback.
type ReminderResult struct {
	BookingID string            `json:"bookingId,omitempty"`
	LeadTime  LeadTime          `json:"leadTime,omitempty"`
	Outcomes  []DeliveryOutcome `json:"outcomes"`
}

// Outcome returns the outcome recorded for ch, if any.
func (r *ReminderResult) Outcome(ch Channel) (DeliveryOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Channel == ch {
			return o, true
		}
	}
	return DeliveryOutcome{}, false
}
