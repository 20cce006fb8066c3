package notifications

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/config"
	"whitelister/distribution"
	"whitelister/util"
)

const (
	TELEGRAM = "telegram"
)

type Notifier interface {
	Send(string) error
	IsEnabled() bool
}

type NotificationHandler struct {
	notifiers map[string]Notifier
}

// NewHandler builds every notifier present in the configuration. Absent or
// disabled notifiers are skipped when sending.
func NewHandler(cfg config.Notifications) (*NotificationHandler, error) {

	n := &NotificationHandler{
		notifiers: make(map[string]Notifier, 1),
	}

	if cfg.Telegram != nil {
		nt, err := NewTelegram(cfg.Telegram)
		if err != nil {
			return n, errors.Wrap(err, "Unable to init telegram")
		}
		n.notifiers[TELEGRAM] = nt
	}

	return n, nil
}

// Configure replaces a notifier
func (n *NotificationHandler) Configure(name string, notifier Notifier) {
	n.notifiers[name] = notifier
}

// Send delivers msg through every enabled notifier. Failures are logged and
// never affect the run.
func (n *NotificationHandler) Send(msg string) {

	if n == nil {
		return
	}

	for name, notifier := range n.notifiers {
		if !notifier.IsEnabled() {
			continue
		}
		if err := notifier.Send(msg); err != nil {
			log.WithError(err).WithField("Notifier", name).Error("Unable to send notification")
		}
	}
}

// SendReport sends the summary of a finished run
func (n *NotificationHandler) SendReport(report *distribution.Report) {
	n.Send(ReportMessage(report))
}

// ReportMessage renders a short, human readable summary of a run
func ReportMessage(report *distribution.Report) string {

	var b strings.Builder

	prefix := ""
	if report.DryRun {
		prefix = "[dry run] "
	}

	if report.Completed() {
		fmt.Fprintf(&b, "%sWhitelisting completed for all %d categories\n", prefix, len(report.Results))
	} else {
		fmt.Fprintf(&b, "%sWhitelisting aborted at %s: %s\n", prefix, report.Category, report.Error)
	}

	for _, res := range report.Results {
		line := fmt.Sprintf("%s: %s", res.Category, res.Status)
		if res.Reward != nil {
			line += fmt.Sprintf(", %s tokens to %d addresses", util.FormatUnits(res.Reward, util.TOKEN_DECIMALS), res.Participants)
		}
		b.WriteString(line + "\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
