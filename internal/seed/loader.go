// Package seed registers services described in *.svc files of a directory.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/logger"
)

// Extension is the file extension of seed descriptions.
const Extension = ".svc"

// Adder registers a service from its textual description.
type Adder interface {
	AddService(ctx context.Context, body io.ReadCloser) (uuid.UUID, error)
}

// Result summarizes one load.
type Result struct {
	Added   int
	Skipped int // already registered
	Failed  int
}

// Loader reads seed files from a directory.
type Loader struct {
	dir    string
	adder  Adder
	logger logger.Logger
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, adder Adder, log logger.Logger) *Loader {
	if adder == nil {
		panic("seed: nil adder")
	}
	return &Loader{dir: dir, adder: adder, logger: log}
}

// Files lists the seed files of dir in lexical order.
func Files(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("seed path %s is not a directory", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, fmt.Errorf("failed to list seed files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Load adds every seed file. Files describing an already registered service
// are skipped; invalid files are logged and counted, they never abort the load.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	var res Result

	files, err := Files(l.dir)
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		id, err := l.addFile(ctx, path)
		switch {
		case err == nil:
			res.Added++
			l.logger.Debug("seed service added",
				logger.String("file", filepath.Base(path)),
				logger.Stringer("service_id", id))
		case errors.Is(err, engine.ErrDuplicateService):
			res.Skipped++
		default:
			res.Failed++
			l.logger.Warn("invalid seed file",
				logger.String("file", filepath.Base(path)),
				logger.Error(err))
		}
	}

	l.logger.Info("seed files loaded",
		logger.String("dir", l.dir),
		logger.Int("added", res.Added),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed))
	return res, nil
}

func (l *Loader) addFile(ctx context.Context, path string) (uuid.UUID, error) {
	f, err := os.Open(path)
	if err != nil {
		return uuid.Nil, err
	}
	// AddService closes f.
	return l.adder.AddService(ctx, f)
}
