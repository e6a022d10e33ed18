package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"justbot/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeAccountOpened   EventType = "account_opened"
	EventTypeLoanIssued      EventType = "loan_issued"
	EventTypeLoanPaidOff     EventType = "loan_paid_off"
	EventTypeVehicleDecided  EventType = "vehicle_decided"
	EventTypeWarningIssued   EventType = "warning_issued"
	EventTypeTicketClosed    EventType = "ticket_closed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	DiscordID    int64
	GuildID      int64
	OldBalance   int64
	NewBalance   int64
	EntryType    models.EntryType
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountOpenedEvent represents a new account creation
type AccountOpenedEvent struct {
	DiscordID int64
	Username  string
}

func (e AccountOpenedEvent) Type() EventType {
	return EventTypeAccountOpened
}

// LoanIssuedEvent represents a loan being granted
type LoanIssuedEvent struct {
	LoanID    int64
	DiscordID int64
	Principal int64
	TotalOwed int64
}

func (e LoanIssuedEvent) Type() EventType {
	return EventTypeLoanIssued
}

// LoanPaidOffEvent represents a loan reaching its paid state
type LoanPaidOffEvent struct {
	LoanID    int64
	DiscordID int64
}

func (e LoanPaidOffEvent) Type() EventType {
	return EventTypeLoanPaidOff
}

// VehicleDecidedEvent represents a registration leaving the pending state
type VehicleDecidedEvent struct {
	RegistrationID int64
	GuildID        int64
	DiscordID      int64
	VehicleName    string
	Status         models.VehicleStatus
	ReviewerID     *int64
}

func (e VehicleDecidedEvent) Type() EventType {
	return EventTypeVehicleDecided
}

// WarningIssuedEvent represents a warning being recorded
type WarningIssuedEvent struct {
	WarningID  int64
	GuildID    int64
	DiscordID  int64
	TotalCount int
	Threshold  int
}

func (e WarningIssuedEvent) Type() EventType {
	return EventTypeWarningIssued
}

// TicketClosedEvent represents a ticket being closed
type TicketClosedEvent struct {
	TicketID  int64
	GuildID   int64
	ChannelID int64
	ClosedBy  int64
}

func (e TicketClosedEvent) Type() EventType {
	return EventTypeTicketClosed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events are processed independently of the transaction lifecycle, so
	// emission uses a background context rather than the request context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback to drop pending events.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
