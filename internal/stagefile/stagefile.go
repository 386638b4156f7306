// Package stagefile mirrors the pipeline stage into a single-line file so a
// later run can resume from it.
package stagefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-architect/internal/stage"
)

type Store struct {
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger.With(zap.String("stage_file", path))}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the raw persisted value. A missing file reads as empty, which
// stage.Parse maps to the recruiter.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading stage file %q: %w", s.path, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

// Save replaces the file contents with the stage.
func (s *Store) Save(st stage.Stage) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".stage-*")
	if err != nil {
		return fmt.Errorf("creating temporary stage file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(st.String() + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("writing stage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing stage file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing stage file %q: %w", s.path, err)
	}
	return nil
}

// Observer persists every stage change. Write failures are logged and do not
// affect the pipeline.
func (s *Store) Observer() stage.Observer {
	return func(from, to stage.Stage) {
		if err := s.Save(to); err != nil {
			s.logger.Warn("stage not persisted", zap.String("stage", to.String()), zap.Error(err))
			return
		}
		s.logger.Debug("stage persisted", zap.String("from", from.String()), zap.String("to", to.String()))
	}
}
