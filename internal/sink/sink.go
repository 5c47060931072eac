// Package sink persists job results.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"

	"tabflow/internal/config"
)

// ErrExists is returned in "error" mode when the target already exists.
var ErrExists = errors.New("output already exists")

type encoder interface {
	encode(w io.Writer, name string, df dataframe.DataFrame) error
}

// Sink writes frames to files in one format and write mode.
type Sink struct {
	mode string
	enc  encoder
}

// New builds a sink for the output config.
func New(cfg config.OutputConfig) (*Sink, error) {
	var enc encoder
	switch cfg.Format {
	case config.FormatCSV, "":
		comma := ','
		if d := []rune(cfg.Delimiter); len(d) == 1 {
			comma = d[0]
		}
		enc = &csvEncoder{comma: comma, header: cfg.Header, null: cfg.NullValue}
	case config.FormatXLSX:
		enc = &xlsxEncoder{header: cfg.Header}
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Format)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeError
	}
	switch mode {
	case config.ModeOverwrite, config.ModeError, config.ModeIgnore:
	default:
		return nil, fmt.Errorf("unsupported output mode %q", mode)
	}
	return &Sink{mode: mode, enc: enc}, nil
}

// Write stores df at path. name labels the data inside the file (the
// sheet name for xlsx). written is false when ignore mode skipped an
// existing target.
func (s *Sink) Write(path, name string, df dataframe.DataFrame) (written bool, err error) {
	if df.Err != nil {
		return false, df.Err
	}

	if _, err := os.Stat(path); err == nil {
		switch s.mode {
		case config.ModeError:
			return false, fmt.Errorf("%s: %w", path, ErrExists)
		case config.ModeIgnore:
			return false, nil
		}
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = s.enc.encode(tmp, name, df); err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("failed to move output into place: %w", err)
	}
	return true, nil
}
