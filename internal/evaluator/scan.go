package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Candidate is a result file eligible for processing.
type Candidate struct {
	Path    string
	Name    string
	ModTime time.Time
}

// FileScanner discovers candidate result files in the watch directory.
// The clock is injected so the min-age guard is testable.
type FileScanner struct {
	dir      string
	patterns []string
	minAge   time.Duration
	clock    func() time.Time
	logger   *logrus.Logger
}

// NewFileScanner creates a scanner over dir for files matching any of the
// glob patterns and older than minAge.
func NewFileScanner(dir string, patterns []string, minAge time.Duration, clock func() time.Time, logger *logrus.Logger) *FileScanner {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &FileScanner{dir: dir, patterns: patterns, minAge: minAge, clock: clock, logger: logger}
}

// Scan lists candidates in deterministic order: ascending by file name, ties
// broken by modification time. Files younger than minAge are skipped to guard
// against partially written drops. A missing watch directory is created and
// yields no candidates.
func (s *FileScanner) Scan() ([]Candidate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(s.dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("failed to create watch directory: %w", mkErr)
			}
			s.logger.WithField("dir", s.dir).Info("Created watch directory")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read watch directory: %w", err)
	}

	now := s.clock()
	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() || !s.matches(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.WithField("file", entry.Name()).Warnf("Could not stat candidate: %v", err)
			continue
		}
		if now.Sub(info.ModTime()) < s.minAge {
			s.logger.WithField("file", entry.Name()).Debug("Skipping candidate younger than min file age")
			continue
		}

		candidates = append(candidates, Candidate{
			Path:    filepath.Join(s.dir, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Name != candidates[j].Name {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].ModTime.Before(candidates[j].ModTime)
	})

	return candidates, nil
}

func (s *FileScanner) matches(name string) bool {
	for _, pattern := range s.patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
