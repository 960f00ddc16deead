// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"github.com/gen2brain/beeep"

	"github.com/vemikrs/mira/internal/logger"
)

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	logger.Debug("Notification: Sending - title=%q, message=%q", title, message)
	// Empty icon path, beeep uses platform defaults.
	err := beeep.Notify(title, message, "")
	if err != nil {
		logger.Warn("Notification: Failed to send: %v", err)
	}
	return err
}

// ReplyReady notifies that an assistant reply finished in a conversation
// that is not currently on screen.
func ReplyReady(conversationTitle string) error {
	return Send("Mira", "Reply ready in "+conversationTitle)
}

// ReplyFailed notifies that a send failed in a background conversation.
func ReplyFailed(conversationTitle string) error {
	return Send("Mira", "Reply failed in "+conversationTitle)
}
