package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/maunakea/config"
	"github.com/pthm-cable/maunakea/player"
	"github.com/pthm-cable/maunakea/script"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir string

	generations csvSink
	frames      csvSink
	perf        csvSink
	bookmarks   csvSink
}

// csvSink is a CSV file opened on first write. The header goes out with the
// first record only.
type csvSink struct {
	name          string
	file          *os.File
	headerWritten bool
}

func (s *csvSink) write(dir string, records any) error {
	if s.file == nil {
		f, err := os.Create(filepath.Join(dir, s.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", s.name, err)
		}
		s.file = f
	}

	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

func (s *csvSink) close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:         dir,
		generations: csvSink{name: "generations.csv"},
		frames:      csvSink{name: "frames.csv"},
		perf:        csvSink{name: "perf.csv"},
		bookmarks:   csvSink{name: "bookmarks.csv"},
	}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends a record to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	return om.generations.write(om.dir, []GenerationStats{stats})
}

// WriteFrame appends a record to frames.csv.
func (om *OutputManager) WriteFrame(stats FrameStats) error {
	if om == nil {
		return nil
	}
	return om.frames.write(om.dir, []FrameStats{stats})
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write(om.dir, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark appends a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write(om.dir, []Bookmark{b})
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof json.Marshaler) error {
	if om == nil || hof == nil {
		return nil
	}

	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}
	return nil
}

// WriteSnapshot saves the final state snapshot and returns its path.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(s, om.dir)
}

// WriteInputs saves the input script as inputs.txt. A non-empty note marks
// a partial run.
func (om *OutputManager) WriteInputs(label string, inputs []player.Angle, note string) error {
	if om == nil {
		return nil
	}
	path := filepath.Join(om.dir, "inputs.txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating inputs.txt: %w", err)
	}
	if err := script.EncodePartial(f, label, inputs, note); err != nil {
		f.Close()
		return fmt.Errorf("writing inputs.txt: %w", err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{&om.generations, &om.frames, &om.perf, &om.bookmarks} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
