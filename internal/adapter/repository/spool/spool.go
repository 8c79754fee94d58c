package spool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/tenant-gateway/internal/domain"
)

const filePerm = 0644

// AuditSpool is a file-backed overflow buffer for audit records. When the
// audit store is unreachable, records append here as NDJSON and are
// replayed once the store recovers, so an outage never loses the trail.
type AuditSpool struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
	size int64
}

func NewAuditSpool(path string, logger *slog.Logger) (*AuditSpool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}

	s := &AuditSpool{
		path:   path,
		logger: logger.With("component", "audit_spool"),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AuditSpool) open() error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open spool file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat spool file: %w", err)
	}
	s.file = file
	s.size = info.Size()
	return nil
}

// Write appends a record to the spool.
func (s *AuditSpool) Write(ctx context.Context, rec *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	data = append(data, '\n')

	n, err := s.file.Write(data)
	if err != nil {
		return fmt.Errorf("append to spool: %w", err)
	}
	s.size += int64(n)
	return nil
}

// Pending reports whether the spool holds records awaiting replay.
func (s *AuditSpool) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size > 0
}

// Replay feeds every spooled record to the handler in append order and
// truncates the spool when the handler accepted all of them. A handler
// error stops the replay; records the handler already accepted are
// removed, so the next attempt resumes at the first unconsumed record
// instead of re-delivering.
func (s *AuditSpool) Replay(ctx context.Context, handler func(rec *domain.AuditRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size == 0 {
		return nil
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync spool before replay: %w", err)
	}

	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open spool for replay: %w", err)
	}
	defer file.Close()

	replayed := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec domain.AuditRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// A corrupt line cannot be replayed; drop it rather than
			// wedge the spool forever.
			s.logger.Warn("skipping corrupt spool line", "error", err)
			continue
		}

		if err := handler(&rec); err != nil {
			rest := [][]byte{append([]byte(nil), line...)}
			for scanner.Scan() {
				if l := scanner.Bytes(); len(l) > 0 {
					rest = append(rest, append([]byte(nil), l...))
				}
			}
			if scanErr := scanner.Err(); scanErr != nil {
				return fmt.Errorf("read spool: %w", scanErr)
			}
			if compactErr := s.compact(rest); compactErr != nil {
				s.logger.Error("failed to compact spool after replay failure", "error", compactErr)
			}
			return fmt.Errorf("replay handler after %d records: %w", replayed, err)
		}
		replayed++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read spool: %w", err)
	}

	if err := s.truncate(); err != nil {
		return err
	}

	s.logger.Info("audit spool replayed", "records", replayed)
	return nil
}

// compact rewrites the spool so only the given lines remain. The rewrite
// goes through a rename so a crash mid-compaction leaves either the old
// or the new file, never a torn one.
func (s *AuditSpool) compact(lines [][]byte) error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close spool: %w", err)
	}

	var buf bytes.Buffer
	for _, l := range lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), filePerm); err != nil {
		_ = s.open()
		return fmt.Errorf("write compacted spool: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = s.open()
		return fmt.Errorf("replace spool: %w", err)
	}
	return s.open()
}

func (s *AuditSpool) truncate() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close spool: %w", err)
	}
	if err := os.Truncate(s.path, 0); err != nil {
		return fmt.Errorf("truncate spool: %w", err)
	}
	return s.open()
}

// Close releases the underlying file.
func (s *AuditSpool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
