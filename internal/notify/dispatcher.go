package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/rsvp"
)

type notificationKind int

const (
	kindInvitation notificationKind = iota
	kindUpdate
	kindCancellation
)

type notification struct {
	kind      notificationKind
	event     persistence.Event
	attendees []persistence.Attendee
}

// Dispatcher implements application.Notifier over a bounded queue and a
// single delivery worker. Enqueueing never blocks the booking path: when the
// queue is full the notification is dropped with a warning.
type Dispatcher struct {
	mailer      Mailer
	tokens      *rsvp.Service
	baseURL     string
	fromAddress string
	logger      *slog.Logger

	queue chan notification
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewDispatcher builds a dispatcher with the given queue capacity.
func NewDispatcher(mailer Mailer, tokens *rsvp.Service, baseURL, fromAddress string, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mailer:      mailer,
		tokens:      tokens,
		baseURL:     baseURL,
		fromAddress: fromAddress,
		logger:      logger,
		queue:       make(chan notification, queueSize),
		done:        make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop drains the queue and waits for the worker to finish. No further
// notifications are accepted after Stop.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

// EventInvitation queues invitation mail for the attendees.
func (d *Dispatcher) EventInvitation(event persistence.Event, attendees []persistence.Attendee) {
	d.enqueue(notification{kind: kindInvitation, event: event, attendees: attendees})
}

// EventUpdated queues reschedule/update mail for the attendees.
func (d *Dispatcher) EventUpdated(event persistence.Event, attendees []persistence.Attendee) {
	d.enqueue(notification{kind: kindUpdate, event: event, attendees: attendees})
}

// EventCancelled queues cancellation mail for the attendees.
func (d *Dispatcher) EventCancelled(event persistence.Event, attendees []persistence.Attendee) {
	d.enqueue(notification{kind: kindCancellation, event: event, attendees: attendees})
}

func (d *Dispatcher) enqueue(n notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("notification dropped after shutdown", "event_id", n.event.ID)
		return
	}
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping", "event_id", n.event.ID)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n notification) {
	// SEQUENCE grows with each modification of the same UID so clients apply
	// updates in order.
	sequence := 0
	if n.kind != kindInvitation {
		sequence = int(n.event.UpdatedAt.Sub(n.event.CreatedAt).Seconds())
		if sequence < 1 {
			sequence = 1
		}
	}

	for _, attendee := range n.attendees {
		msg := d.buildMessage(n, attendee, sequence)
		if err := d.mailer.Send(msg); err != nil {
			d.logger.Error("notification delivery failed",
				"event_id", n.event.ID, "to", attendee.Email, "error", err)
		}
	}
}

func (d *Dispatcher) buildMessage(n notification, attendee persistence.Attendee, sequence int) Message {
	event := n.event
	when := event.Start.Format("Mon, 02 Jan 2006 15:04 MST")

	var msg Message
	msg.To = attendee.Email

	switch n.kind {
	case kindInvitation:
		msg.Subject = fmt.Sprintf("Invitation: %s", event.Title)
		msg.Body = fmt.Sprintf("You have been invited to %q on %s.\n\n%s",
			event.Title, when, d.rsvpFooter(attendee, event))
		msg.ICS = buildInvite(event, []persistence.Attendee{attendee}, d.fromAddress, sequence)
	case kindUpdate:
		msg.Subject = fmt.Sprintf("Updated: %s", event.Title)
		msg.Body = fmt.Sprintf("The meeting %q has been updated. It now takes place on %s.\n\n%s",
			event.Title, when, d.rsvpFooter(attendee, event))
		msg.ICS = buildInvite(event, []persistence.Attendee{attendee}, d.fromAddress, sequence)
	case kindCancellation:
		msg.Subject = fmt.Sprintf("Cancelled: %s", event.Title)
		msg.Body = fmt.Sprintf("The meeting %q scheduled for %s has been cancelled.", event.Title, when)
		msg.ICS = buildCancel(event, []persistence.Attendee{attendee}, d.fromAddress, sequence)
	}
	return msg
}

func (d *Dispatcher) rsvpFooter(attendee persistence.Attendee, event persistence.Event) string {
	if d.tokens == nil || d.baseURL == "" {
		return ""
	}
	token := d.tokens.Issue(attendee.ID, event.ID)
	return fmt.Sprintf("Respond: %s/rsvp/%s?token=%s", d.baseURL, attendee.ID, token)
}
