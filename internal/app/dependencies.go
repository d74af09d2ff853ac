package app

import (
	"database/sql"

	"github.com/meetly/meetly/internal/event_bus"
	"github.com/meetly/meetly/internal/utils"
	"github.com/meetly/meetly/pkg/event"
	"github.com/meetly/meetly/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	EventRepo    event.Repository
	EventService event.Service
	EventHandler *event.EventHandler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.EventRepo = event.NewEventRepo(db)
	deps.EventService = event.NewEventService(deps.EventRepo, deps.UserService, deps.Bus)
	deps.EventHandler = event.NewEventHandler(deps.EventService, deps.Clock)

	subscribeAuditLog(deps.Bus)

	return deps
}

// subscribeAuditLog logs invitation and status-change activity published on
// the bus.
func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped[event_bus.InvitationCreated](bus, event_bus.InvitationCreatedType,
		func(e event_bus.EventT[event_bus.InvitationCreated]) error {
			log.Infof("invitation created: event %s (%q) for user %s, starts %s",
				e.Data.EventID, e.Data.Name, e.Data.UserID, e.Data.StartDate)
			return nil
		})
	statusLogger := func(e event_bus.EventT[event_bus.StatusChanged]) error {
		log.Infof("event %s is now %s for user %s", e.Data.EventID, e.Data.Status, e.Data.UserID)
		return nil
	}
	event_bus.SubscribeTyped[event_bus.StatusChanged](bus, event_bus.EventAcceptedType, statusLogger)
	event_bus.SubscribeTyped[event_bus.StatusChanged](bus, event_bus.EventDeclinedType, statusLogger)
}
