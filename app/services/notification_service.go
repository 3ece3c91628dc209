package services

import (
	"context"
	"log"

	businessflow "github.com/veritag/veritag/business_flow"
)

// NotificationService delivers brand-facing notifications. Regeneration
// events are informational; delivery is best-effort and a failure never
// propagates back into the issuance flow.
type NotificationService struct {
	logger *log.Logger
}

func NewNotificationService(logger *log.Logger) businessflow.RegenerationNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &NotificationService{logger: logger}
}

// CodeRegenerated records the rotation. Old printed labels keep resolving,
// so the notification is advisory rather than an action item.
func (s *NotificationService) CodeRegenerated(ctx context.Context, event businessflow.CodeRegeneratedEvent) {
	if event.OldCode != "" {
		s.logger.Printf("code regenerated for product %d: %s -> %s (old code stays scannable, marked outdated)",
			event.ProductID, event.OldCode, event.NewCode)
		return
	}
	s.logger.Printf("code issued for product %d via regeneration: %s (no prior active code)",
		event.ProductID, event.NewCode)
}
