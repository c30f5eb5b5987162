package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/errors"
	"github.com/JingliCheng/Fireball/internal/models"
)

const DetailFileName = "jobs.jsonl"

// Raw descriptions can run long; lines up to this size are accepted.
const maxDetailLineSize = 4 * 1024 * 1024

// DetailLog is the append-only log of scraped job details, one json
// object per line. Existing lines are never rewritten; a correction is a
// new line for the same id, and reads take the last match. Reads scan the
// file fresh on every call, so the log needs no in-memory state and no
// reload after a restore.
type DetailLog struct {
	path   string
	logger *zap.Logger
}

func NewDetailLog(dir string, logger *zap.Logger) (*DetailLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Internal("creating storage directory", err)
	}

	path := filepath.Join(dir, DetailFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Internal("creating detail log", err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Internal("closing detail log", err)
	}

	return &DetailLog{path: path, logger: logger}, nil
}

func (l *DetailLog) Path() string {
	return l.path
}

func (l *DetailLog) Append(info models.JobInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errors.Internal("marshaling job info", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Internal("opening detail log", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			l.logger.Warn("failed to close detail log", zap.Error(cerr))
		}
	}()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Internal("appending to detail log", err)
	}

	l.logger.Debug("appended job detail", zap.String("job_id", info.JobID))
	return nil
}

// Get scans the log in file order and returns the last record matching
// id, or nil when none does.
func (l *DetailLog) Get(id string) (*models.JobInfo, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Internal("opening detail log", err)
	}
	defer f.Close()

	var found *models.JobInfo
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDetailLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var info models.JobInfo
		if err := json.Unmarshal(line, &info); err != nil {
			return nil, errors.MalformedState("detail log line does not match the expected shape", err)
		}
		if info.JobID == id {
			match := info
			found = &match
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Internal("scanning detail log", err)
	}
	return found, nil
}

// Count returns the number of records in the log. Reappended corrections
// count separately; this is a log length, not a distinct-id count.
func (l *DetailLog) Count() (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return 0, errors.Internal("opening detail log", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDetailLineSize)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Internal("scanning detail log", err)
	}
	return count, nil
}
