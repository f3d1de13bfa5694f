package notification

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// DefaultQueueSize is the dispatch queue capacity when none is configured.
const DefaultQueueSize = 64

// Sender delivers a single message synchronously.
type Sender interface {
	SendVerificationEmail(to, verifyURL string) error
	SendPasswordResetEmail(to, resetURL string) error
}

type mailKind int

const (
	mailVerification mailKind = iota
	mailPasswordReset
)

type mailJob struct {
	kind mailKind
	to   string
	url  string
}

// Dispatcher decouples mail delivery from the request path: sends are
// enqueued onto a bounded channel consumed by a single worker goroutine.
// Enqueueing never blocks; when the queue is full the message is dropped
// and logged. Delivery failures are logged, never surfaced to the caller.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	baseURL string

	queue chan mailJob
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher and starts its worker.
func NewDispatcher(sender Sender, logger *slog.Logger, baseURL string, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		baseURL: baseURL,
		queue:   make(chan mailJob, queueSize),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// SendVerification enqueues a verification email carrying the token link.
func (d *Dispatcher) SendVerification(email, token string) {
	verifyURL := fmt.Sprintf("%s/api/v1/user/verify-email?token=%s", d.baseURL, url.QueryEscape(token))
	d.enqueue(mailJob{kind: mailVerification, to: email, url: verifyURL})
}

// SendPasswordReset enqueues a password-reset email carrying the token link.
func (d *Dispatcher) SendPasswordReset(email, token string) {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", d.baseURL, url.QueryEscape(token))
	d.enqueue(mailJob{kind: mailPasswordReset, to: email, url: resetURL})
}

func (d *Dispatcher) enqueue(job mailJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("mail dispatcher closed, dropping message", "to", job.to)
		return
	}
	select {
	case d.queue <- job:
	default:
		d.logger.Warn("mail queue full, dropping message", "to", job.to)
	}
}

// Close stops accepting messages and waits for queued sends to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		var err error
		switch job.kind {
		case mailVerification:
			err = d.sender.SendVerificationEmail(job.to, job.url)
		case mailPasswordReset:
			err = d.sender.SendPasswordResetEmail(job.to, job.url)
		}
		if err != nil {
			d.logger.Error("failed to send email", "to", job.to, "error", err)
		}
	}
}
