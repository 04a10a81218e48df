// internal/events/dispatcher.go
package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event names published by the core services.
const (
	ApplicationSubmitted = "application.submitted"
	ApplicationReviewed  = "application.reviewed"
	ApplicationExpired   = "application.expired"
	LicenseIssued        = "license.issued"
	LicenseBootstrapped  = "license.bootstrapped"
	ViolationRecorded    = "violation.recorded"
	ViolationUpdated     = "violation.updated"
	ViolationDeleted     = "violation.deleted"
	PaymentCompleted     = "payment.completed"
)

// Event is what a primary operation publishes after its own write succeeded.
type Event struct {
	Name    string
	UserID  uuid.UUID
	Payload map[string]interface{}
}

// Handler consumes an event. A handler error is logged and swallowed; it can
// never fail or roll back the publishing operation.
type Handler func(Event) error

// Dispatcher is an in-process pub/sub bus for best-effort side effects.
// Handlers run on their own goroutine unless the dispatcher was built
// synchronous (tests).
type Dispatcher struct {
	mtx      sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	sync     bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// NewSyncDispatcher delivers events inline on the publisher's goroutine.
func NewSyncDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler), sync: true}
}

func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

func (d *Dispatcher) Publish(event Event) {
	d.mtx.RLock()
	handlers := d.handlers[event.Name]
	d.mtx.RUnlock()

	for _, h := range handlers {
		if d.sync {
			d.run(h, event)
			continue
		}

		d.wg.Add(1)
		go func(h Handler) {
			defer d.wg.Done()
			d.run(h, event)
		}(h)
	}
}

func (d *Dispatcher) run(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"event": event.Name,
				"panic": r,
			}).Error("Event handler panicked")
		}
	}()

	if err := h(event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Name,
			"user_id": event.UserID,
		}).Error("Event handler failed")
	}
}

// Wait blocks until all in-flight handlers have finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
