package mail

import (
	"context"
	"fmt"
)

// Message is one fetched inbox message, already reduced to its text part.
type Message struct {
	ID                string
	ThreadID          string
	InternetMessageID string
	From              string
	Subject           string
	Body              string
}

// Outgoing is a reply to be transmitted, with threading hints.
type Outgoing struct {
	To        string
	Subject   string
	Body      string
	ThreadID  string
	InReplyTo string
}

// Fetcher retrieves recent inbox messages, newest first.
type Fetcher interface {
	Fetch(ctx context.Context, max int) ([]Message, error)
}

// Sender transmits a reply and returns the provider's delivery identifier.
// Failures come back as *SendError; they are not retried automatically, the
// user retries by repeating the send.
type Sender interface {
	Send(ctx context.Context, out Outgoing) (string, error)
}

// SendError marks a delivery failure the conversation engine shows to the
// user while keeping the draft for a retry.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
