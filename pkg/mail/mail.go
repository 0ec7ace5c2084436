package mail

import "context"

// Message is one outbound email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers messages to recipients.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
