package mail

import "context"

// Message is a fully rendered outbound email. Rendering happens in the
// auth service; senders only transport.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message. Implementations must bound their
// own network timeouts; callers treat any error as channel failure and
// may fall back to a secondary sender.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
