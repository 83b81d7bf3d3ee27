package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"golang.org/x/sync/errgroup"
)

const (
	reasonChannelDisabled = "channel not configured"
	reasonNoContent       = "no message content"
)

// dispatcher sends one message on both channels, isolating their failures.
type dispatcher struct {
	sms         SMSSender
	whatsapp    TemplateSender
	callTimeout time.Duration
	logger      *slog.Logger
}

// deliver returns one outcome per channel, SMS first. It never returns early:
// a failing channel is recorded and the other still runs.
func (d *dispatcher) deliver(ctx context.Context, phone, smsBody string, tmpl *domain.TemplatePayload, kind string) []domain.DeliveryOutcome {
	outcomes := make([]domain.DeliveryOutcome, 2)

	var g errgroup.Group
	g.Go(func() error {
		outcomes[0] = d.sendSMS(ctx, phone, smsBody, kind)
		return nil
	})
	g.Go(func() error {
		outcomes[1] = d.sendTemplate(ctx, phone, tmpl, kind)
		return nil
	})
	_ = g.Wait()

	for _, o := range outcomes {
		deliveriesCounter.WithLabelValues(string(o.Channel), kind, string(o.Status)).Inc()
	}
	return outcomes
}

func (d *dispatcher) sendSMS(ctx context.Context, phone, body, kind string) domain.DeliveryOutcome {
	if d.sms == nil {
		return domain.Skipped(domain.ChannelSMS, reasonChannelDisabled)
	}
	if body == "" {
		return domain.Skipped(domain.ChannelSMS, reasonNoContent)
	}

	callCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	id, err := d.sms.SendSMS(callCtx, phone, body)
	if err != nil {
		d.logger.ErrorContext(ctx, "SMS delivery failed", "kind", kind, "recipient", phone, "error", err)
		return domain.Failed(domain.ChannelSMS, err.Error())
	}
	d.logger.InfoContext(ctx, "SMS delivered", "kind", kind, "recipient", phone, "provider_message_id", id)
	return domain.Sent(domain.ChannelSMS, id)
}

func (d *dispatcher) sendTemplate(ctx context.Context, phone string, tmpl *domain.TemplatePayload, kind string) domain.DeliveryOutcome {
	if d.whatsapp == nil {
		return domain.Skipped(domain.ChannelWhatsApp, reasonChannelDisabled)
	}
	if !tmpl.Deliverable() {
		return domain.Skipped(domain.ChannelWhatsApp, reasonNoContent)
	}

	callCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	id, err := d.whatsapp.SendTemplate(callCtx, phone, tmpl)
	if err != nil {
		d.logger.ErrorContext(ctx, "Template delivery failed", "kind", kind, "recipient", phone, "template", tmpl.Template, "error", err)
		return domain.Failed(domain.ChannelWhatsApp, err.Error())
	}
	d.logger.InfoContext(ctx, "Template delivered", "kind", kind, "recipient", phone, "template", tmpl.Template, "provider_message_id", id)
	return domain.Sent(domain.ChannelWhatsApp, id)
}

func (d *dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.callTimeout)
}
