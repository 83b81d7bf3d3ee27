package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupReminderTest() (*ReminderService, *MockSMSSender, *MockTemplateSender) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sms := new(MockSMSSender)
	whatsapp := new(MockTemplateSender)
	return NewReminderService(sms, whatsapp, nil, time.Second, logger), sms, whatsapp
}

func testReminder() domain.ScheduledReminder {
	return domain.ScheduledReminder{
		BookingID:      "bk_123",
		LeadTime:       domain.TenMinutes,
		Phone:          "94771234567",
		Message:        "Reminder: Your meeting with br.lk starts in 10 mins.",
		TemplateParams: domain.NewTemplatePayload("meeting_reminder", []string{"Nimal", "10 mins", "https://meet.example.com/abc"}),
	}
}

func TestReminderService_MissingPhone(t *testing.T) {
	service, sms, whatsapp := setupReminderTest()

	for _, phone := range []string{"", "   "} {
		r := testReminder()
		r.Phone = phone
		result, err := service.HandleReminder(context.Background(), r)
		assert.ErrorIs(t, err, domain.ErrMissingPhone)
		assert.Nil(t, result)
	}
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
	whatsapp.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_DeliversBothChannels(t *testing.T) {
	service, sms, whatsapp := setupReminderTest()
	r := testReminder()

	sms.On("SendSMS", mock.Anything, "94771234567", r.Message).Return("sms-9", nil).Once()
	whatsapp.On("SendTemplate", mock.Anything, "94771234567", r.TemplateParams).Return("wamid.9", nil).Once()

	result, err := service.HandleReminder(context.Background(), r)
	require.NoError(t, err)
	sms.AssertExpectations(t)
	whatsapp.AssertExpectations(t)

	assert.Equal(t, "bk_123", result.BookingID)
	assert.Equal(t, domain.TenMinutes, result.LeadTime)
	smsOut, ok := result.Outcome(domain.ChannelSMS)
	require.True(t, ok)
	assert.Equal(t, domain.Sent(domain.ChannelSMS, "sms-9"), smsOut)
	waOut, ok := result.Outcome(domain.ChannelWhatsApp)
	require.True(t, ok)
	assert.Equal(t, domain.Sent(domain.ChannelWhatsApp, "wamid.9"), waOut)
}

func TestReminderService_RedeliveryIsIndependent(t *testing.T) {
	service, sms, whatsapp := setupReminderTest()
	r := testReminder()

	sms.On("SendSMS", mock.Anything, "94771234567", r.Message).Return("sms-1", nil).Twice()
	whatsapp.On("SendTemplate", mock.Anything, "94771234567", mock.Anything).Return("", errors.New("rate limited")).Once()
	whatsapp.On("SendTemplate", mock.Anything, "94771234567", mock.Anything).Return("wamid.2", nil).Once()

	first, err := service.HandleReminder(context.Background(), r)
	require.NoError(t, err)
	second, err := service.HandleReminder(context.Background(), r)
	require.NoError(t, err)

	sms.AssertExpectations(t)
	whatsapp.AssertExpectations(t)

	firstWA, _ := first.Outcome(domain.ChannelWhatsApp)
	secondWA, _ := second.Outcome(domain.ChannelWhatsApp)
	assert.Equal(t, domain.OutcomeFailed, firstWA.Status)
	assert.Equal(t, domain.OutcomeSent, secondWA.Status)

	firstSMS, _ := first.Outcome(domain.ChannelSMS)
	secondSMS, _ := second.Outcome(domain.ChannelSMS)
	assert.Equal(t, domain.OutcomeSent, firstSMS.Status)
	assert.Equal(t, domain.OutcomeSent, secondSMS.Status)
}

func TestReminderService_MissingContentIsSkipped(t *testing.T) {
	t.Run("no sms body", func(t *testing.T) {
		service, sms, whatsapp := setupReminderTest()
		r := testReminder()
		r.Message = ""
		whatsapp.On("SendTemplate", mock.Anything, "94771234567", mock.Anything).Return("wamid.1", nil).Once()

		result, err := service.HandleReminder(context.Background(), r)
		require.NoError(t, err)
		smsOut, _ := result.Outcome(domain.ChannelSMS)
		assert.Equal(t, domain.OutcomeSkipped, smsOut.Status)
		sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
		whatsapp.AssertExpectations(t)
	})

	t.Run("no template", func(t *testing.T) {
		service, sms, whatsapp := setupReminderTest()
		r := testReminder()
		r.TemplateParams = nil
		sms.On("SendSMS", mock.Anything, "94771234567", r.Message).Return("sms-1", nil).Once()

		result, err := service.HandleReminder(context.Background(), r)
		require.NoError(t, err)
		waOut, _ := result.Outcome(domain.ChannelWhatsApp)
		assert.Equal(t, domain.OutcomeSkipped, waOut.Status)
		whatsapp.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything)
		sms.AssertExpectations(t)
	})

	t.Run("template without params", func(t *testing.T) {
		service, sms, whatsapp := setupReminderTest()
		r := testReminder()
		r.TemplateParams = &domain.TemplatePayload{Template: "meeting_reminder"}
		sms.On("SendSMS", mock.Anything, "94771234567", r.Message).Return("sms-1", nil).Once()

		result, err := service.HandleReminder(context.Background(), r)
		require.NoError(t, err)
		waOut, _ := result.Outcome(domain.ChannelWhatsApp)
		assert.Equal(t, domain.OutcomeSkipped, waOut.Status)
		whatsapp.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReminderService_SMSFailureDoesNotSuppressTemplate(t *testing.T) {
	service, sms, whatsapp := setupReminderTest()
	r := testReminder()

	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("insufficient credit")).Once()
	whatsapp.On("SendTemplate", mock.Anything, mock.Anything, mock.Anything).Return("wamid.3", nil).Once()

	result, err := service.HandleReminder(context.Background(), r)
	require.NoError(t, err)
	smsOut, _ := result.Outcome(domain.ChannelSMS)
	assert.Equal(t, domain.Failed(domain.ChannelSMS, "insufficient credit"), smsOut)
	waOut, _ := result.Outcome(domain.ChannelWhatsApp)
	assert.Equal(t, domain.OutcomeSent, waOut.Status)
}

func TestReminderService_PublishesDeliveredEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sms := new(MockSMSSender)
	events := new(MockEventPublisher)
	service := NewReminderService(sms, nil, events, time.Second, logger)

	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("sms-1", nil).Once()
	events.On("Publish", mock.Anything, SubjectReminderDelivered, mock.Anything).Return(nil).Once()

	_, err := service.HandleReminder(context.Background(), testReminder())
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestLeadLabel_IsBounded(t *testing.T) {
	assert.Equal(t, "one_hour", leadLabel(domain.OneHour))
	assert.Equal(t, "ten_minutes", leadLabel(domain.TenMinutes))
	assert.Equal(t, "unspecified", leadLabel(0))
	assert.Equal(t, "other", leadLabel(domain.LeadTime(time.Nanosecond)))
	assert.Equal(t, "other", leadLabel(domain.LeadTime(30*time.Minute)))
}
