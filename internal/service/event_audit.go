package service

import (
	"context"

	"sales-research-be/internal/pkg/logger"
	"sales-research-be/pkg/events"
	pktNats "sales-research-be/pkg/nats"
)

// NewEventAuditHandler writes every assistant event into the system log.
// The event stream uses a work-queue retention policy, so a consumer must
// exist for published events to be drained; this one doubles as a
// queryable audit trail through the diagnostics log endpoint.
func NewEventAuditHandler(sysLogger logger.ILogger) pktNats.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		sysLogger.Info("EventAudit", "Assistant event: "+event.EventType(), event.Payload())
		return nil
	}
}
