// Package notify turns event lifecycle changes into mail deliveries with
// iCalendar attachments and RSVP response links.
package notify

// Message is one outbound mail with an optional iCalendar payload.
type Message struct {
	To      string
	Subject string
	Body    string
	ICS     string
}

// Mailer delivers messages. Implementations own retries; a returned error is
// logged and the message is dropped.
type Mailer interface {
	Send(msg Message) error
}
