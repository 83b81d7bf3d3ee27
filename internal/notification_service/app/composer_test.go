package app

import (
	"testing"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testComposer() *Composer {
	return NewComposer(ComposerConfig{
		Region:               domain.SriLanka,
		BrandName:            "br.lk",
		SupportContactURL:    "https://wa.me/94777895327",
		RescheduleBaseURL:    "https://cal.com/reschedule/",
		ConfirmationTemplate: "meeting_confirmation",
		ReminderTemplate:     "meeting_reminder",
	})
}

func testEvent() domain.BookingEvent {
	return domain.BookingEvent{
		BookingID:    "bk_123",
		StartTime:    time.Date(2026, 1, 22, 4, 30, 0, 0, time.UTC),
		AttendeeName: "Nimal",
		RawPhone:     "0771234567",
		MeetingLink:  "https://meet.example.com/abc",
	}
}

func TestComposer_Confirmation(t *testing.T) {
	msgs := testComposer().Compose(testEvent(), "94771234567")

	body := msgs.Confirmation.SMSBody
	assert.Contains(t, body, "Hi Nimal,")
	assert.Contains(t, body, "Time: 2026-01-22 10:00")
	assert.Contains(t, body, "Join here: https://meet.example.com/abc")
	assert.Contains(t, body, "https://cal.com/reschedule/bk_123")
	assert.Contains(t, body, "Thank you for choosing br.lk")
	assert.Equal(t, domain.LeadTime(0), msgs.Confirmation.LeadTime)

	require.NotNil(t, msgs.Confirmation.Template)
	assert.Equal(t, "meeting_confirmation", msgs.Confirmation.Template.Template)
	assert.Equal(t, []string{"Nimal", "2026-01-22 10:00", "https://meet.example.com/abc"}, msgs.Confirmation.Template.Params())
}

func TestComposer_RemindersAlwaysComposedInOrder(t *testing.T) {
	msgs := testComposer().Compose(testEvent(), "94771234567")

	require.Len(t, msgs.Reminders, 2)
	assert.Equal(t, domain.OneHour, msgs.Reminders[0].LeadTime)
	assert.Equal(t, domain.TenMinutes, msgs.Reminders[1].LeadTime)

	hour := msgs.Reminders[0]
	assert.Contains(t, hour.SMSBody, "starts in 1 hour (2026-01-22 10:00)")
	assert.Contains(t, hour.SMSBody, "Join Link: https://meet.example.com/abc")
	assert.Contains(t, hour.SMSBody, "https://cal.com/reschedule/bk_123")
	assert.Contains(t, hour.SMSBody, "https://wa.me/94777895327")
	assert.Equal(t, []string{"Nimal", "1 hour", "https://meet.example.com/abc"}, hour.Template.Params())
	assert.Equal(t, "meeting_reminder", hour.Template.Template)

	ten := msgs.Reminders[1]
	assert.Contains(t, ten.SMSBody, "Reminder: Your meeting with br.lk starts in 10 mins.")
	assert.Contains(t, ten.SMSBody, "Click to join: https://meet.example.com/abc")
	assert.Equal(t, []string{"Nimal", "10 mins", "https://meet.example.com/abc"}, ten.Template.Params())
}

func TestComposer_Deterministic(t *testing.T) {
	c := testComposer()
	assert.Equal(t, c.Compose(testEvent(), "94771234567"), c.Compose(testEvent(), "94771234567"))
}

func TestComposer_BlankNameAndBookingID(t *testing.T) {
	event := testEvent()
	event.AttendeeName = "  "
	event.BookingID = ""

	msgs := testComposer().Compose(event, "94771234567")
	assert.Contains(t, msgs.Confirmation.SMSBody, "Hi there,")
	assert.Contains(t, msgs.Confirmation.SMSBody, "Need to reschedule? https://cal.com/reschedule\n")
	assert.Equal(t, "there", msgs.Confirmation.Template.Params()[0])
}

func TestComposer_MissingTemplateNameIsNotDeliverable(t *testing.T) {
	c := NewComposer(ComposerConfig{Region: domain.SriLanka, BrandName: "br.lk"})
	msgs := c.Compose(testEvent(), "94771234567")
	assert.False(t, msgs.Confirmation.Template.Deliverable())
	assert.NotEmpty(t, msgs.Confirmation.SMSBody)
}
