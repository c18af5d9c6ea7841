package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"botcheck/pkg/config"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier reports the end of a run on the terminal and, when enabled, the desktop
type Notifier struct {
	sender     NotificationSender
	enabled    bool
	onComplete bool
	onError    bool
}

// NewNotifier builds a Notifier from the notification settings
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{
		enabled:    cfg.Enabled && cfg.NotificationType != "none",
		onComplete: cfg.OnComplete,
		onError:    cfg.OnError,
	}
	if cfg.NotificationType == "desktop" {
		n.sender = platformSender()
	}
	return n
}

// NewNotifierWithSender builds an always-on Notifier for the given sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender, enabled: true, onComplete: true, onError: true}
}

func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	default:
		return nil
	}
}

// SendSuccess announces a finished run
func (n *Notifier) SendSuccess(title, message string) {
	if !n.enabled || !n.onComplete {
		return
	}
	if !IsQuiet() {
		fmt.Fprintf(Output, "\n%s: %s\n", Green(title), Green(message))
	}
	n.send(title, message)
}

// SendError announces a failed run
func (n *Notifier) SendError(title, message string) {
	if !n.enabled || !n.onError {
		return
	}
	fmt.Fprintf(Output, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// desktop delivery is best effort
		_ = n.sender.Send(title, message)
	}
}
