// Package notify delivers desktop notifications through notify-send,
// degrading to log output when the binary is not installed.
package notify

import (
	"log/slog"
	"os/exec"
)

// Desktop posts notifications with notify-send.
type Desktop struct {
	binary string
}

// NewDesktop locates notify-send once. When it is missing, notifications are
// written to the log instead.
func NewDesktop() *Desktop {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		slog.Info("notify-send not found, notifications go to the log")
		return &Desktop{}
	}
	return &Desktop{binary: path}
}

// Notify posts one notification. Delivery failures are logged, never
// returned.
func (d *Desktop) Notify(summary, body string) {
	if d.binary == "" {
		slog.Info("Notification", "summary", summary, "body", body)
		return
	}
	if err := exec.Command(d.binary, summary, body).Run(); err != nil {
		slog.Warn("Failed to send notification", "error", err)
	}
}
