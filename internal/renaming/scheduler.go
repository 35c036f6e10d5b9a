package renaming

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/tasks"
)

// Renamer is what the scheduler drives; *Service satisfies it.
type Renamer interface {
	RenameDocument(ctx context.Context, docID uuid.UUID) (string, error)
}

// History reports a client's most recent renamed document, if any; the
// document repository satisfies it.
type History interface {
	LastRenamed(ctx context.Context, clientID uuid.UUID) (*entity.Document, error)
}

// SchedulerConfig tunes the rename pacing.
type SchedulerConfig struct {
	// QueueSize bounds the pending rename queue; Enqueue fails when full.
	QueueSize int
	// Delay is the minimum spacing between renames, so each rename sees the
	// previous one's committed name when it reads the last sequence number.
	Delay time.Duration
	// FastBootstrap lets a client's first document skip the pacing delay.
	// The skip only applies when no renamed document exists for the client
	// yet, in memory or (when a History is attached) in the database.
	FastBootstrap bool
}

type job struct {
	docID     uuid.UUID
	clientID  uuid.UUID
	taskID    uuid.UUID
	bootstrap bool
}

// Scheduler serializes renames through a single drainer goroutine. Global
// FIFO order implies per-client FIFO order, which is what sequence integrity
// needs. Queue state is in memory only; the reprocess CLI recovers documents
// lost to a restart.
type Scheduler struct {
	cfg      SchedulerConfig
	svc      Renamer
	registry *tasks.Registry
	history  History
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[uuid.UUID]bool // clients that have claimed their bootstrap slot

	queue   chan job
	limiter *rate.Limiter

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	drained   chan struct{}
}

func NewScheduler(cfg SchedulerConfig, svc Renamer, registry *tasks.Registry, logger *slog.Logger) *Scheduler {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		svc:      svc,
		registry: registry,
		logger:   logger,
		seen:     make(map[uuid.UUID]bool),
		queue:    make(chan job, cfg.QueueSize),
		limiter:  rate.NewLimiter(rate.Every(cfg.Delay), 1),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}
}

// WithHistory attaches a store the drainer consults before granting the
// bootstrap fast path, so a restarted process does not treat a client with
// existing renamed documents as new. Call before Start.
func (s *Scheduler) WithHistory(h History) *Scheduler {
	s.history = h
	return s
}

// Start launches the drainer. Safe to call once; ctx cancellation stops it.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.drain(ctx)
	})
}

// Enqueue registers a rename task and queues it. The bootstrap claim happens
// here, atomically under the mutex: whichever upload arrives first for a new
// client gets the fast path, concurrent arrivals for the same client queue
// behind it.
func (s *Scheduler) Enqueue(docID, clientID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	bootstrap := !s.seen[clientID]
	s.seen[clientID] = true
	s.mu.Unlock()

	taskID := s.registry.Start(docID, constants.TaskKindRename)
	j := job{docID: docID, clientID: clientID, taskID: taskID, bootstrap: bootstrap}

	select {
	case s.queue <- j:
		s.logger.Debug("rename queued",
			"document_id", docID, "client_id", clientID, "bootstrap", bootstrap,
			"queue_len", len(s.queue),
		)
		return taskID, nil
	default:
		s.registry.Finish(taskID, fmt.Errorf("rename queue full"))
		return taskID, fmt.Errorf("rename queue full (%d pending)", len(s.queue))
	}
}

func (s *Scheduler) drain(ctx context.Context) {
	defer close(s.drained)
	for {
		select {
		case <-ctx.Done():
			s.failPending(ctx.Err())
			return
		case <-s.done:
			s.failPending(fmt.Errorf("scheduler shut down"))
			return
		case j := <-s.queue:
			fast := j.bootstrap && s.cfg.FastBootstrap
			if fast && s.history != nil {
				if prev, err := s.history.LastRenamed(ctx, j.clientID); err != nil {
					s.logger.Warn("bootstrap history check failed, keeping fast path",
						"client_id", j.clientID, "error", err)
				} else if prev != nil {
					fast = false
				}
			}
			// Every job consumes a pacing token so the next one keeps its
			// distance; fast bootstraps just skip the wait.
			res := s.limiter.Reserve()
			if d := res.Delay(); d > 0 && !fast {
				timer := time.NewTimer(d)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					s.registry.Finish(j.taskID, ctx.Err())
					s.failPending(ctx.Err())
					return
				case <-s.done:
					timer.Stop()
					s.registry.Finish(j.taskID, fmt.Errorf("scheduler shut down"))
					s.failPending(fmt.Errorf("scheduler shut down"))
					return
				}
			}
			s.runJob(ctx, j)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, j job) {
	s.registry.Running(j.taskID)
	name, err := s.svc.RenameDocument(ctx, j.docID)
	if err != nil {
		// The document keeps its original name; the failure is visible on
		// the task, not fatal to the upload.
		s.logger.Error("rename failed",
			"document_id", j.docID, "client_id", j.clientID, "error", err)
		s.registry.Finish(j.taskID, err)
		return
	}
	s.logger.Info("rename done", "document_id", j.docID, "name", name)
	s.registry.Finish(j.taskID, nil)
}

func (s *Scheduler) failPending(cause error) {
	for {
		select {
		case j := <-s.queue:
			s.registry.Finish(j.taskID, fmt.Errorf("abandoned: %w", cause))
		default:
			return
		}
	}
}

// Shutdown stops the drainer and waits for it to exit or ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.done) })
	select {
	case <-s.drained:
	case <-ctx.Done():
	}
}
