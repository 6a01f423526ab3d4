// Package notifier provides desktop notifications for scenario runs
package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/types"
)

// SendFunc delivers a single notification.
type SendFunc func(title, message string) error

// RunNotifier reports failed transitions and finished runs
type RunNotifier struct {
	enabled bool
	beep    bool
	send    SendFunc
	logger  logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Beep plays the system bell alongside failure notifications.
	Beep bool
	// Send overrides the desktop notification backend.
	Send SendFunc
}

// New creates a new run notifier
func New(config Config, log logger.Logger) *RunNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	send := config.Send
	if send == nil {
		send = func(title, message string) error {
			return beeep.Notify(title, message, "")
		}
	}
	return &RunNotifier{
		enabled: config.Enabled,
		beep:    config.Beep,
		send:    send,
		logger:  log,
	}
}

// NotifyTransitionFailed notifies that a screen animation reported failure
func (n *RunNotifier) NotifyTransitionFailed(screen string, phase types.Phase) {
	if !n.enabled {
		return
	}

	title := "⚠️ Transition Failed"
	message := fmt.Sprintf("%s: %s animation did not finish", screen, phase)

	n.sendNotification(title, message, n.beep)
}

// NotifyRunComplete notifies that a scenario finished
func (n *RunNotifier) NotifyRunComplete(script string, stack []string, failed int, duration time.Duration) {
	if !n.enabled {
		return
	}

	title := "✅ Scenario Finished"
	if failed > 0 {
		title = "⚠️ Scenario Finished"
	}
	message := fmt.Sprintf("%s in %s, stack [%s]", script, formatDuration(duration), strings.Join(stack, " "))
	if failed > 0 {
		message += fmt.Sprintf(", %d failed transitions", failed)
	}

	n.sendNotification(title, message, false)
}

// NotifyRunFailure notifies that a scenario stopped on an error
func (n *RunNotifier) NotifyRunFailure(script string, err error) {
	if !n.enabled {
		return
	}

	title := "❌ Scenario Failed"
	message := fmt.Sprintf("%s: %v", script, err)

	n.sendNotification(title, message, n.beep)
}

// Private methods

func (n *RunNotifier) sendNotification(title, message string, beep bool) {
	if err := n.send(title, message); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithError(err))
		n.logger.Info(fmt.Sprintf("%s: %s", title, message))
	}

	if beep {
		if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithError(err))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
