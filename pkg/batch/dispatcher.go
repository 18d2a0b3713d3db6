package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ethpandaops/uploadoor/pkg/scan"
)

// UploadFunc performs a single upload attempt for one candidate and returns
// the raw result. The function is expected to bound its own duration (a
// per-call timeout) and to report transport problems via RawResult.Err.
type UploadFunc func(ctx context.Context, c scan.Candidate) RawResult

// Appender durably records a completed upload. Satisfied by *ledger.Ledger.
type Appender interface {
	Append(name string) error
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Concurrency is the fixed worker count; at most this many uploads are
	// in flight at once. Must be at least 1.
	Concurrency int
	// RatePerSecond throttles upload starts across all workers.
	// Zero disables throttling.
	RatePerSecond float64
	// Ledger records successful uploads. Required.
	Ledger Appender
	// OnOutcome, when set, observes every outcome as it arrives, from
	// worker goroutines.
	OnOutcome func(Outcome)
}

// Dispatcher distributes candidates to a fixed-size pool of upload workers.
//
// Every candidate handed to Run is submitted to exactly one worker exactly
// once. A failed upload never affects the processing of any other candidate
// and is never retried within the run; it simply stays absent from the
// ledger and is re-selected next time.
type Dispatcher struct {
	log     logrus.FieldLogger
	cfg     *DispatcherConfig
	limiter *rate.Limiter
}

// NewDispatcher creates a dispatcher from the given configuration.
func NewDispatcher(log logrus.FieldLogger, cfg *DispatcherConfig) (*Dispatcher, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	d := &Dispatcher{
		log: log.WithField("component", "dispatcher"),
		cfg: cfg,
	}

	if cfg.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return d, nil
}

// Run uploads every candidate and returns once all submitted work has
// produced an outcome. Cancelling ctx stops the submission of new
// candidates; uploads already in flight are allowed to finish and, on
// success, are still recorded in the ledger before Run returns.
//
// The returned error reports ledger append failures only; per-file upload
// failures are reported through the Report, never as an error.
func (d *Dispatcher) Run(ctx context.Context, candidates []scan.Candidate, upload UploadFunc) (*Report, error) {
	report := &Report{}
	queue := make(chan scan.Candidate)

	var (
		appendErrMu sync.Mutex
		appendErr   error
	)

	g := new(errgroup.Group)
	for i := 0; i < d.cfg.Concurrency; i++ {
		g.Go(func() error {
			for c := range queue {
				// A candidate dequeued after cancellation counts as a new
				// submission and is skipped; it was never attempted, so it
				// stays eligible for the next run.
				if ctx.Err() != nil {
					d.log.WithField("file", c.Name).Debug("Run cancelled, leaving file for next run")

					continue
				}

				if d.limiter != nil {
					if err := d.limiter.Wait(ctx); err != nil {
						d.log.WithField("file", c.Name).Debug("Run cancelled, leaving file for next run")

						continue
					}
				}

				d.log.WithFields(logrus.Fields{
					"file": c.Name,
					"size": c.Size,
				}).Info("Uploading")

				// Detach the upload from batch cancellation: in-flight
				// uploads run to completion (bounded by the per-call
				// timeout inside upload) so a confirmed success is never
				// lost to the ledger.
				raw := upload(context.WithoutCancel(ctx), c)
				outcome := Classify(c.Name, raw)

				if outcome.Success() {
					if err := d.cfg.Ledger.Append(c.Name); err != nil {
						d.log.WithField("file", c.Name).WithError(err).
							Error("Failed to record completed upload")

						appendErrMu.Lock()
						if appendErr == nil {
							appendErr = err
						}
						appendErrMu.Unlock()
					}
				}

				report.record(outcome)
				d.logOutcome(outcome)

				if d.cfg.OnOutcome != nil {
					d.cfg.OnOutcome(outcome)
				}
			}

			return nil
		})
	}

submit:
	for i, c := range candidates {
		select {
		case queue <- c:
		case <-ctx.Done():
			d.log.WithField("remaining", len(candidates)-i).
				Warn("Run cancelled, remaining candidates not submitted")

			break submit
		}
	}

	close(queue)
	_ = g.Wait()

	return report, appendErr
}

// logOutcome logs one classified outcome at the appropriate level.
func (d *Dispatcher) logOutcome(o Outcome) {
	switch o.Status {
	case StatusSuccess:
		d.log.WithFields(logrus.Fields{
			"file":     o.File,
			"photo_id": o.PhotoID,
		}).Info("Uploaded")
	case StatusRejected:
		d.log.WithFields(logrus.Fields{
			"file": o.File,
			"code": o.Code,
			"msg":  o.Message,
		}).Error("Upload rejected by service")
	case StatusTransportFailure:
		d.log.WithFields(logrus.Fields{
			"file":  o.File,
			"cause": o.Cause,
		}).Error("Upload failed")
	}
}
