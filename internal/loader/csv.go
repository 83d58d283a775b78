// Package loader turns external tabular files into typed records.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/grid-better/internal/models"
)

// Recommendation file columns. Names are case-sensitive and order-independent.
var recommendationColumns = []string{"driver", "odds", "predicted_probability", "expected_value", "race_name"}

// Result file columns.
var resultColumns = []string{"driver", "actual_position", "race_name"}

// CSVLoader reads recommendation and race result files.
type CSVLoader struct {
	logger *logrus.Logger
}

// NewCSVLoader creates a loader that logs skipped rows.
func NewCSVLoader(logger *logrus.Logger) *CSVLoader {
	if logger == nil {
		logger = logrus.New()
	}
	return &CSVLoader{logger: logger}
}

// LoadRecommendations reads a betting recommendations file. Rows with missing
// fields or an out-of-range probability are skipped and logged; odds below 1.0
// are kept so the simulation engine can count them as validation skips.
func (l *CSVLoader) LoadRecommendations(path string) ([]models.Recommendation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recommendations file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := headerIndex(reader, recommendationColumns)
	if err != nil {
		return nil, fmt.Errorf("recommendations file %s: %w", path, err)
	}

	var recs []models.Recommendation
	seen := make(map[models.BetKey]int)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recommendations file %s line %d: %w", path, line+1, err)
		}
		line++

		rec, err := parseRecommendation(row, header)
		if err != nil {
			l.logger.WithFields(logrus.Fields{"file": path, "line": line}).Warnf("Skipping recommendation row: %v", err)
			continue
		}
		// A repeated (race, driver) pair replaces the earlier row. The ledger
		// holds at most one bet per pair, so the file must too.
		if i, dup := seen[rec.Key()]; dup {
			l.logger.WithFields(logrus.Fields{"file": path, "line": line, "race": rec.RaceName, "driver": rec.Driver}).Warn("Duplicate recommendation, keeping the later row")
			recs[i] = rec
			continue
		}
		seen[rec.Key()] = len(recs)
		recs = append(recs, rec)
	}

	return recs, nil
}

// LoadRaceResults reads and validates a race result batch. Unlike
// recommendations, a single bad row rejects the whole file: missing columns,
// out-of-range positions and duplicate (race, driver) pairs are all
// ValidationErrors.
func (l *CSVLoader) LoadRaceResults(path string) ([]models.RaceResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := headerIndex(reader, resultColumns)
	if err != nil {
		return nil, fmt.Errorf("results file %s: %w", path, err)
	}

	seen := make(map[models.BetKey]struct{})
	var results []models.RaceResult
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("results file %s line %d: %w", path, line+1, models.NewValidationError("malformed_row", err.Error()))
		}
		line++

		result, err := parseRaceResult(row, header)
		if err != nil {
			return nil, fmt.Errorf("results file %s line %d: %w", path, line, err)
		}
		if _, dup := seen[result.Key()]; dup {
			return nil, fmt.Errorf("results file %s line %d (%s/%s): %w", path, line, result.RaceName, result.Driver, models.ErrDuplicateEntry)
		}
		seen[result.Key()] = struct{}{}
		results = append(results, result)
	}

	return results, nil
}

// headerIndex reads the header row and maps required column names to indices.
func headerIndex(reader *csv.Reader, required []string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, models.NewValidationError("empty_file", "file has no header row")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumns, strings.Join(missing, ", "))
	}

	return index, nil
}

func parseRecommendation(row []string, header map[string]int) (models.Recommendation, error) {
	raceName := field(row, header, "race_name")
	driver := field(row, header, "driver")
	if raceName == "" {
		return models.Recommendation{}, models.ErrMissingRaceName
	}
	if driver == "" {
		return models.Recommendation{}, models.ErrMissingDriver
	}

	odds, err := decimal.NewFromString(field(row, header, "odds"))
	if err != nil {
		return models.Recommendation{}, models.NewValidationError("invalid_odds", fmt.Sprintf("unparseable odds %q", field(row, header, "odds")))
	}
	probability, err := strconv.ParseFloat(field(row, header, "predicted_probability"), 64)
	if err != nil || probability < 0 || probability > 1 {
		return models.Recommendation{}, models.ErrInvalidProbability
	}
	ev, err := strconv.ParseFloat(field(row, header, "expected_value"), 64)
	if err != nil {
		return models.Recommendation{}, models.NewValidationError("invalid_expected_value", fmt.Sprintf("unparseable expected_value %q", field(row, header, "expected_value")))
	}

	return models.Recommendation{
		RaceName:             raceName,
		Driver:               driver,
		Odds:                 odds,
		PredictedProbability: probability,
		ExpectedValue:        ev,
	}, nil
}

func parseRaceResult(row []string, header map[string]int) (models.RaceResult, error) {
	result := models.RaceResult{
		RaceName: field(row, header, "race_name"),
		Driver:   field(row, header, "driver"),
	}

	position, err := parsePosition(field(row, header, "actual_position"))
	if err != nil {
		return models.RaceResult{}, err
	}
	result.Position = position

	if err := result.Validate(); err != nil {
		return models.RaceResult{}, err
	}
	return result, nil
}

// parsePosition accepts a 1-based finishing position, or a non-finisher
// sentinel (DNF/DNS/DSQ or 0).
func parsePosition(raw string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DNF", "DNS", "DSQ":
		return models.PositionDNF, nil
	}

	position, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidPosition, raw)
	}
	if position < models.PositionDNF || position > models.MaxFinishingPosition {
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidPosition, position)
	}
	return position, nil
}

func field(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
