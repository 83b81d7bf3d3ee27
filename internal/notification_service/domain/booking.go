package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TriggerBookingCreated is the only trigger the service acts on.
const TriggerBookingCreated = "BOOKING_CREATED"

// MeetingLinkFallback is used when the booking carries neither a video link nor a location.
const MeetingLinkFallback = "Check email for link"

// BookingWebhook is the envelope every scheduling-platform webhook arrives in.
type BookingWebhook struct {
	TriggerEvent string          `json:"triggerEvent"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// Attendee is one attendee entry of a scheduling-platform booking payload.
type Attendee struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	TimeZone    string `json:"timeZone,omitempty"`
}

// BookingMetadata carries optional platform metadata.
type BookingMetadata struct {
	VideoCallURL string `json:"videoCallUrl"`
}

// BookingPayload mirrors the "payload" object of a booking webhook.
// Only the fields the notifier reads are declared.
type BookingPayload struct {
	UID       string                     `json:"uid"`
	BookingID json.RawMessage            `json:"bookingId,omitempty"` // number or string depending on platform version
	Title     string                     `json:"title,omitempty"`
	StartTime string                     `json:"startTime"`
	EndTime   string                     `json:"endTime,omitempty"`
	Location  string                     `json:"location,omitempty"`
	Attendees []Attendee                 `json:"attendees"`
	Responses map[string]json.RawMessage `json:"responses,omitempty"`
	Metadata  BookingMetadata            `json:"metadata"`
}

// BookingEvent is the validated, immutable view of one booking used for composition.
type BookingEvent struct {
	BookingID    string
	StartTime    time.Time
	AttendeeName string
	RawPhone     string
	MeetingLink  string
	Location     string
}

// DecodeBookingPayload decodes the raw payload object of a booking webhook.
func DecodeBookingPayload(raw json.RawMessage) (*BookingPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: payload is empty", ErrMalformedPayload)
	}
	var p BookingPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

// HasAttendees reports whether the booking lists at least one attendee.
func (p *BookingPayload) HasAttendees() bool {
	return len(p.Attendees) > 0
}

// responsePhoneKeys are the form-response fields checked, in order, when the
// attendee carries no direct phone number.
var responsePhoneKeys = []string{"phone", "attendeePhoneNumber"}

// AttendeePhone returns the first attendee's phone, falling back to the form responses.
func (p *BookingPayload) AttendeePhone() string {
	if len(p.Attendees) > 0 && strings.TrimSpace(p.Attendees[0].PhoneNumber) != "" {
		return p.Attendees[0].PhoneNumber
	}
	for _, key := range responsePhoneKeys {
		if v := responseValue(p.Responses[key]); v != "" {
			return v
		}
	}
	return ""
}

// responseValue accepts both a bare string and a {"value": "..."} form response.
func responseValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var field struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &field); err == nil {
		return strings.TrimSpace(field.Value)
	}
	return ""
}

// MeetingLink prefers the video call URL, then the location, then MeetingLinkFallback.
func (p *BookingPayload) MeetingLink() string {
	if link := strings.TrimSpace(p.Metadata.VideoCallURL); link != "" {
		return link
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		return loc
	}
	return MeetingLinkFallback
}

// ID returns the booking uid, or the booking id when no uid is present.
// A null, empty or non-scalar booking id yields "".
func (p *BookingPayload) ID() string {
	if uid := strings.TrimSpace(p.UID); uid != "" {
		return uid
	}
	raw := bytes.TrimSpace(p.BookingID)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	// null decodes into json.Number as "", objects, arrays and booleans fail.
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// ToEvent builds the BookingEvent; it fails only when the start time cannot be parsed.
func (p *BookingPayload) ToEvent() (BookingEvent, error) {
	if strings.TrimSpace(p.StartTime) == "" {
		return BookingEvent{}, fmt.Errorf("%w: startTime is empty", ErrInvalidStartTime)
	}
	start, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return BookingEvent{}, fmt.Errorf("%w: %v", ErrInvalidStartTime, err)
	}

	var name string
	if len(p.Attendees) > 0 {
		name = strings.TrimSpace(p.Attendees[0].Name)
	}

	return BookingEvent{
		BookingID:    p.ID(),
		StartTime:    start.UTC(),
		AttendeeName: name,
		RawPhone:     p.AttendeePhone(),
		MeetingLink:  p.MeetingLink(),
		Location:     p.Location,
	}, nil
}
