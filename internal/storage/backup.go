package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/errors"
)

const (
	backupPrefix       = "backup_"
	backupInfoFileName = "backup_info.json"
	backupTimeLayout   = "20060102_150405"
)

type backupInfo struct {
	Timestamp       string `json:"timestamp"`
	RandomSuffix    string `json:"random_suffix"`
	NumJobsToScrape int    `json:"num_jobs_to_scrape"`
	NumJobsScraped  int    `json:"num_jobs_scraped"`
	TotalJobs       int    `json:"total_jobs"`
}

// Backup snapshots both store files into a new subdirectory of targetDir
// and prunes the oldest backups beyond maxBackups. The subdirectory name
// embeds the timestamp plus a short random suffix so two backups in the
// same second cannot collide. Files are copied byte-for-byte, not
// re-serialized, so the snapshot is exactly what was on disk.
func (s *Store) Backup(targetDir string, maxBackups int) (string, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", errors.Internal("creating backup directory", err)
	}

	now := time.Now().UTC()
	suffix := uuid.NewString()[:4]
	backupDir := filepath.Join(targetDir, backupPrefix+now.Format(backupTimeLayout)+"_"+suffix)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", errors.Internal("creating backup snapshot directory", err)
	}

	if err := copyFile(s.queue.Path(), filepath.Join(backupDir, QueueFileName)); err != nil {
		return "", err
	}
	if err := copyFile(s.details.Path(), filepath.Join(backupDir, DetailFileName)); err != nil {
		return "", err
	}

	info := backupInfo{
		Timestamp:       now.Format(time.RFC3339),
		RandomSuffix:    suffix,
		NumJobsToScrape: len(s.queue.Pending()),
		NumJobsScraped:  len(s.queue.Completed()),
		TotalJobs:       len(s.queue.Pending()) + len(s.queue.Completed()),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", errors.Internal("marshaling backup info", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, backupInfoFileName), data, 0o644); err != nil {
		return "", errors.Internal("writing backup info", err)
	}

	if err := pruneBackups(targetDir, maxBackups); err != nil {
		return "", err
	}

	s.logger.Info("created backup",
		zap.String("path", backupDir),
		zap.Int("num_jobs_to_scrape", info.NumJobsToScrape),
		zap.Int("num_jobs_scraped", info.NumJobsScraped))
	return backupDir, nil
}

// Restore copies the snapshot files in backupPath back over the live
// files and reloads the queue aggregate. The detail log is read fresh on
// every access, so it needs no reload.
func (s *Store) Restore(backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.NotFound("backup directory not found: "+backupPath, err)
	}

	if err := copyFile(filepath.Join(backupPath, QueueFileName), s.queue.Path()); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(backupPath, DetailFileName), s.details.Path()); err != nil {
		return err
	}

	if err := s.queue.Reload(); err != nil {
		return err
	}

	s.logger.Info("restored from backup", zap.String("path", backupPath))
	return nil
}

// pruneBackups deletes the oldest backup subdirectories in excess of
// maxBackups. Names embed the timestamp, so lexicographic order is
// creation order; maxBackups <= 0 disables pruning.
func pruneBackups(targetDir string, maxBackups int) error {
	if maxBackups <= 0 {
		return nil
	}

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		return errors.Internal("listing backup directory", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), backupPrefix) {
			names = append(names, entry.Name())
		}
	}
	if len(names) <= maxBackups {
		return nil
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-maxBackups] {
		if err := os.RemoveAll(filepath.Join(targetDir, name)); err != nil {
			return errors.Internal("removing old backup "+name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Internal("opening "+src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Internal("creating "+dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Internal("copying "+src, err)
	}
	return out.Close()
}
