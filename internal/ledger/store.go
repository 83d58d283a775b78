// Package ledger persists the append-only record of simulated bets and the
// derived per-race summary stream.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/grid-better/internal/models"
)

var ledgerColumns = []string{
	"race_name", "driver", "quote", "predicted_probability", "ev",
	"actual_position", "bet_amount", "outcome", "profit_loss", "success_threshold",
}

// Store is a file-backed append-only ledger. Entries are never deleted or
// edited, only appended; callers are trusted not to re-append a
// (race, driver) pair that is already present.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *logrus.Logger
}

// NewStore creates a ledger store for the given file path. The file is
// created lazily on first append.
func NewStore(path string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append writes bets to the end of the ledger, creating the file with its
// header first if needed. Prior entries are never reordered or removed.
func (s *Store) Append(bets []models.SimulatedBet) error {
	if len(bets) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	// A zero-byte file still needs its header, same as a missing one.
	info, statErr := os.Stat(s.path)
	writeHeader := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)
	if statErr != nil && !os.IsNotExist(statErr) {
		return fmt.Errorf("failed to stat ledger file: %w", statErr)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(ledgerColumns); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	for _, bet := range bets {
		if err := writer.Write(marshalBet(bet)); err != nil {
			return fmt.Errorf("failed to write ledger entry: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"entries": len(bets), "file": s.path}).Info("Appended bets to ledger")
	return nil
}

// Read returns every simulated bet in insertion order. A missing ledger file
// is an empty ledger; a malformed persisted entry is ErrCorruptLedger and is
// never silently dropped or reinterpreted.
func (s *Store) Read() ([]models.SimulatedBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// ProcessedRaces returns the set of race names already present in the ledger.
func (s *Store) ProcessedRaces() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bets, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	races := make(map[string]struct{})
	for _, bet := range bets {
		races[bet.RaceName] = struct{}{}
	}
	return races, nil
}

func (s *Store) readLocked() ([]models.SimulatedBet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", models.ErrCorruptLedger, err)
	}
	if !columnsMatch(header) {
		return nil, fmt.Errorf("%w: unexpected header %q", models.ErrCorruptLedger, strings.Join(header, ","))
	}

	var bets []models.SimulatedBet
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrCorruptLedger, line, err)
		}
		bet, err := unmarshalBet(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrCorruptLedger, line, err)
		}
		bets = append(bets, bet)
	}

	return bets, nil
}

func columnsMatch(header []string) bool {
	if len(header) != len(ledgerColumns) {
		return false
	}
	for i, name := range ledgerColumns {
		if strings.TrimSpace(header[i]) != name {
			return false
		}
	}
	return true
}

func marshalBet(bet models.SimulatedBet) []string {
	return []string{
		bet.RaceName,
		bet.Driver,
		bet.Odds.String(),
		strconv.FormatFloat(bet.PredictedProbability, 'f', -1, 64),
		strconv.FormatFloat(bet.ExpectedValue, 'f', -1, 64),
		formatPosition(bet.ActualPosition),
		bet.Stake.String(),
		string(bet.Outcome),
		bet.ProfitLoss.String(),
		strconv.Itoa(bet.SuccessThreshold),
	}
}

func unmarshalBet(row []string) (models.SimulatedBet, error) {
	if len(row) != len(ledgerColumns) {
		return models.SimulatedBet{}, fmt.Errorf("expected %d fields, got %d", len(ledgerColumns), len(row))
	}

	odds, err := decimal.NewFromString(row[2])
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad quote %q", row[2])
	}
	probability, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad predicted_probability %q", row[3])
	}
	ev, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad ev %q", row[4])
	}
	position, err := parsePosition(row[5])
	if err != nil {
		return models.SimulatedBet{}, err
	}
	stake, err := decimal.NewFromString(row[6])
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad bet_amount %q", row[6])
	}
	outcome, err := models.ParseOutcome(row[7])
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad outcome %q", row[7])
	}
	profit, err := decimal.NewFromString(row[8])
	if err != nil {
		return models.SimulatedBet{}, fmt.Errorf("bad profit_loss %q", row[8])
	}
	threshold, err := strconv.Atoi(row[9])
	if err != nil || threshold < 1 {
		return models.SimulatedBet{}, fmt.Errorf("bad success_threshold %q", row[9])
	}

	if row[0] == "" || row[1] == "" {
		return models.SimulatedBet{}, fmt.Errorf("empty race_name or driver")
	}

	return models.SimulatedBet{
		RaceName:             row[0],
		Driver:               row[1],
		Odds:                 odds,
		PredictedProbability: probability,
		ExpectedValue:        ev,
		ActualPosition:       position,
		Stake:                stake,
		Outcome:              outcome,
		ProfitLoss:           profit,
		SuccessThreshold:     threshold,
	}, nil
}

func formatPosition(position int) string {
	if position == models.PositionDNF {
		return "DNF"
	}
	return strconv.Itoa(position)
}

func parsePosition(raw string) (int, error) {
	if strings.EqualFold(raw, "DNF") {
		return models.PositionDNF, nil
	}
	position, err := strconv.Atoi(raw)
	if err != nil || position < 1 || position > models.MaxFinishingPosition {
		return 0, fmt.Errorf("bad actual_position %q", raw)
	}
	return position, nil
}
