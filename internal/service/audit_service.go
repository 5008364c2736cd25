package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/logger"
	"github.com/taskhive/taskhive/internal/pkg/metrics"
)

// AuditService decouples audit persistence from the request path: entries go
// onto a buffered channel and a single consumer goroutine writes them to the
// JSONL file and the configured repository.
type AuditService struct {
	logChan chan *model.AuditEntry
	logFile *os.File
	buffer  *auditBuffer
	repo    AuditRepo
	stream  *EventStream
	done    chan struct{}
}

type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, userID string, limit int, from, to *time.Time) ([]*model.AuditEntry, error)
}

func NewAuditService(logDir string, bufferSize int, repo AuditRepo, stream *EventStream) (*AuditService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	// Daily-rotated file name; rotation across midnight is picked up on restart.
	filename := filepath.Join(logDir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	svc := &AuditService{
		logChan: make(chan *model.AuditEntry, bufferSize),
		logFile: f,
		buffer:  newAuditBuffer(bufferSize),
		repo:    repo,
		stream:  stream,
		done:    make(chan struct{}),
	}

	go svc.processEntries()

	return svc, nil
}

// Record never blocks. When the buffer is full the entry is dropped to
// protect the request path.
func (s *AuditService) Record(entry *model.AuditEntry) {
	if s.buffer != nil {
		s.buffer.Add(entry)
	}
	select {
	case s.logChan <- entry:
	default:
		metrics.AuditDropped.Inc()
		logger.Warn("audit buffer full, dropping entry", "action", entry.Action, "user_id", entry.UserID)
	}
}

// QueueDepth reports how many entries are waiting for the consumer.
func (s *AuditService) QueueDepth() int {
	return len(s.logChan)
}

func (s *AuditService) List(ctx context.Context, userID string, limit int, from, to *time.Time) ([]*model.AuditEntry, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, userID, limit, from, to)
		if err == nil {
			return records, nil
		}
		logger.Warn("audit repo list failed, serving from memory", "error", err)
	}
	if s.buffer == nil {
		return nil, nil
	}
	return s.buffer.List(userID, limit), nil
}

func (s *AuditService) processEntries() {
	defer close(s.done)
	encoder := json.NewEncoder(s.logFile)
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				logger.Error("failed to write audit entry to store", "error", err)
			}
		}
		if err := encoder.Encode(entry); err != nil {
			logger.Error("failed to write audit entry to file", "error", err)
		}
		metrics.AuditWritten.Inc()
		if s.stream != nil {
			s.stream.Broadcast(entry)
		}
	}
}

// Close drains pending entries before releasing the file.
func (s *AuditService) Close() {
	close(s.logChan)
	<-s.done
	s.logFile.Close()
}

type auditBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.AuditEntry
	nextIndex int
}

func newAuditBuffer(maxSize int) *auditBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &auditBuffer{
		maxSize: maxSize,
		records: make([]*model.AuditEntry, 0, maxSize),
	}
}

func (b *auditBuffer) Add(entry *model.AuditEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

func (b *auditBuffer) List(userID string, limit int) []*model.AuditEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.AuditEntry, 0, limit)
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		entry := b.records[idx]
		if entry == nil {
			continue
		}
		if userID != "" && entry.UserID != userID {
			continue
		}
		results = append(results, entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}
