package evaluator

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProcessingRecord is emitted once per race actually simulated. It is a pure
// output event, not a side effect on core state.
type ProcessingRecord struct {
	ID            uuid.UUID       `json:"id"`
	RaceName      string          `json:"race_name"`
	BetsProcessed int             `json:"bets_processed"`
	ProfitDelta   decimal.Decimal `json:"profit_delta"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

// Notifier receives processing records for external notification.
type Notifier interface {
	Notify(record ProcessingRecord)
}

// LogNotifier logs processing records through the application logger.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a notifier that writes records to the log.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the processing record.
func (n *LogNotifier) Notify(record ProcessingRecord) {
	n.logger.WithFields(logrus.Fields{
		"id":     record.ID,
		"race":   record.RaceName,
		"bets":   record.BetsProcessed,
		"profit": record.ProfitDelta.StringFixed(2),
	}).Info("Race processed")
}
