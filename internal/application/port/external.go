package port

import "context"

// MessageSender delivers a text notification to a recipient id
type MessageSender interface {
	SendText(ctx context.Context, receiveID, content string) (string, error)
}
