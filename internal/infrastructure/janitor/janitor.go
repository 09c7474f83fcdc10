// Package janitor removes stale reference uploads on a cron schedule.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
)

// Janitor deletes files in the uploads directory older than the retention.
type Janitor struct {
	dir       string
	retention time.Duration
	schedule  string
	log       zerolog.Logger
	now       func() time.Time
}

func New(cfg *config.Config, log zerolog.Logger) *Janitor {
	return &Janitor{
		dir:       cfg.UploadsDir,
		retention: cfg.UploadRetention,
		schedule:  cfg.JanitorSchedule,
		log:       log.With().Str("component", "upload-janitor").Logger(),
		now:       time.Now,
	}
}

// Run sweeps on schedule until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.retention <= 0 {
		j.log.Info().Msg("upload retention disabled, janitor not started")
		return nil
	}

	ctab := crontab.New()
	if err := ctab.AddJob(j.schedule, j.sweepAndLog); err != nil {
		return fmt.Errorf("schedule upload janitor %q: %w", j.schedule, err)
	}
	j.log.Info().Str("schedule", j.schedule).Dur("retention", j.retention).Msg("upload janitor started")

	<-ctx.Done()
	ctab.Shutdown()
	return nil
}

func (j *Janitor) sweepAndLog() {
	removed, err := j.Sweep()
	if err != nil {
		j.log.Warn().Err(err).Msg("upload sweep failed")
		return
	}
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("removed stale uploads")
	}
}

// Sweep deletes stale files and returns how many were removed.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.log.Warn().Err(err).Str("file", entry.Name()).Msg("remove stale upload")
			continue
		}
		removed++
	}
	metrics.RecordJanitorRemoved(removed)
	return removed, nil
}
