package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/f1rq/LifeMap/config"
)

// eventCounter is the slice of the store the maintenance jobs need.
type eventCounter interface {
	Count(ctx context.Context) (int64, error)
}

// MaintenanceService runs the worker's periodic jobs: timestamped
// copy-file backups of the database and event stats logging.
type MaintenanceService struct {
	counter eventCounter
	cfg     config.BackupConfig
	dbPath  string
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(counter eventCounter, cfg config.BackupConfig, dbPath string) *MaintenanceService {
	return &MaintenanceService{
		counter: counter,
		cfg:     cfg,
		dbPath:  dbPath,
	}
}

// BackupDatabase copies the database file into the backup directory and
// prunes old backups beyond the retention count.
func (s *MaintenanceService) BackupDatabase(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create backup directory")
	}

	name := fmt.Sprintf("lifemap-%s.db", time.Now().Format("20060102-150405"))
	dst := filepath.Join(s.cfg.Dir, name)

	if err := copyFile(s.dbPath, dst); err != nil {
		return errors.Wrap(err, "failed to back up database")
	}

	log.Info().Str("backup", dst).Msg("Database backed up")

	if err := s.pruneBackups(); err != nil {
		log.Warn().Err(err).Msg("Failed to prune old backups")
	}

	return nil
}

// LogStats logs the current event count.
func (s *MaintenanceService) LogStats(ctx context.Context) error {
	count, err := s.counter.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to collect event stats")
	}

	log.Info().Int64("events", count).Msg("Event store stats")
	return nil
}

// pruneBackups removes the oldest backups beyond the retention count.
func (s *MaintenanceService) pruneBackups() error {
	if s.cfg.Retain <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "lifemap-") && strings.HasSuffix(entry.Name(), ".db") {
			backups = append(backups, entry.Name())
		}
	}

	// Timestamped names sort chronologically
	sort.Strings(backups)
	for len(backups) > s.cfg.Retain {
		victim := filepath.Join(s.cfg.Dir, backups[0])
		if err := os.Remove(victim); err != nil {
			return err
		}
		log.Debug().Str("backup", victim).Msg("Pruned old backup")
		backups = backups[1:]
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
