package digest

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

// ErrDelivery marks a send capability failure. Fatal to the run, but
// nothing is persisted so the failed run leaves no state behind.
var ErrDelivery = errors.New("digest delivery failed")

// Sender is the outbound email capability. api.MailgunClient implements it.
type Sender interface {
	Send(from, to, subject, htmlBody string) error
}

// Dispatch hands a rendered report to the sender. An empty report is the
// no-changes case: success, no send attempted.
func Dispatch(report models.Report, from, to string, sender Sender, logger *log.Logger) error {
	if report.Empty() {
		if logger != nil {
			logger.Info("No changes in window, skipping send")
		}
		return nil
	}

	if err := sender.Send(from, to, report.Subject, report.HTML); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}
