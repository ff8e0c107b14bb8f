package quizdrill

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// File names inside the data directory
const (
	ProgressFile = "study_progress.json"
	StatsFile    = "study_stats.json"
	BankFile     = "combined_bank.json"
)

// Snapshot is everything that is persisted between runs
type Snapshot struct {
	Bank     []Question
	Progress Progress
	Stats    map[int]*QuestionStat
}

// NewSnapshot returns an empty snapshot in practice mode
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Progress: Progress{Mode: ModePractice},
		Stats:    make(map[int]*QuestionStat),
	}
}

// Store keeps a Snapshot as three JSON files in a directory
type Store struct {
	dir string
}

// OpenStore prepares the data directory
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads the snapshot. Missing files leave their part empty; unreadable
// ones are logged and ignored so a damaged file never blocks startup.
func (s *Store) Load() *Snapshot {
	snap := NewSnapshot()

	if err := s.readJSON(BankFile, &snap.Bank); err != nil {
		Logger().Warn("ignoring question bank", zap.Error(err))
		snap.Bank = nil
	}

	progress := Progress{Mode: ModePractice}
	if err := s.readJSON(ProgressFile, &progress); err != nil {
		Logger().Warn("ignoring study progress", zap.Error(err))
	} else {
		progress.Mode = ParseMode(string(progress.Mode))
		snap.Progress = progress
	}

	stats := make(map[int]*QuestionStat)
	if err := s.readJSON(StatsFile, &stats); err != nil {
		Logger().Warn("ignoring study stats", zap.Error(err))
	} else if stats != nil {
		for id, st := range stats {
			if st == nil {
				delete(stats, id)
			}
		}
		snap.Stats = stats
	}

	VerboseLog("loaded study data",
		zap.Int("questions", len(snap.Bank)),
		zap.Int("wrong", snap.Progress.WrongQuestions.Len()),
		zap.Int("stats", len(snap.Stats)))
	return snap
}

// Save writes all three files
func (s *Store) Save(snap *Snapshot) error {
	bank := snap.Bank
	if bank == nil {
		bank = []Question{}
	}
	if err := s.writeJSON(ProgressFile, snap.Progress); err != nil {
		return err
	}
	if err := s.writeJSON(StatsFile, snap.Stats); err != nil {
		return err
	}
	return s.writeJSON(BankFile, bank)
}

// Clear removes all files written by Save
func (s *Store) Clear() error {
	for _, name := range []string{ProgressFile, StatsFile, BankFile} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
