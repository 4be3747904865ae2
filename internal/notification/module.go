// Package notification emails the intake inbox when a new lead arrives. It is
// driven entirely by domain events and registers no routes.
package notification

import (
	"context"
	"strconv"

	"leadintake_backend/internal/email"
	"leadintake_backend/internal/events"
	"leadintake_backend/internal/http"
	"leadintake_backend/platform/logger"
)

type Module struct {
	sender email.Sender
	inbox  string
	log    *logger.Logger
}

func NewModule(sender email.Sender, bus events.Bus, inbox string, log *logger.Logger) *Module {
	m := &Module{sender: sender, inbox: inbox, log: log}
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(m.onLeadCreated))
	return m
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterRoutes(_ *http.RouterContext) {}

// onLeadCreated sends the staff alert. Delivery is best effort; a failure is
// logged and the event is considered handled.
func (m *Module) onLeadCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}

	score := "unscored"
	if created.AIScore != nil {
		score = strconv.Itoa(*created.AIScore)
	}

	err := m.sender.SendTemplate(ctx, m.inbox, "lead-alert", map[string]string{
		"name":         created.Name,
		"company":      created.Company,
		"projectTitle": created.ProjectTitle,
		"projectType":  created.ProjectType,
		"aiScore":      score,
	})
	if err != nil {
		m.log.EmailError(m.inbox, "lead-alert", err)
	}
	return nil
}
