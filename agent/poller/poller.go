package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

const (
	DefaultInterval    = 15 * time.Second
	DefaultMaxAttempts = 40
)

type Config struct {
	Interval    time.Duration `envconfig:"INTERVAL" split_words:"true" default:"15s"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"40"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Poller)

func WithSleep(sleep SleepFunc) Option {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// Poller drives an external job to a terminal state: completed, failed, or
// the locally imposed timed_out once maxAttempts polls are spent.
type Poller struct {
	checker contractx.JobChecker
	sleep   SleepFunc
}

func New(checker contractx.JobChecker, opts ...Option) (*Poller, error) {
	if checker == nil {
		return nil, errors.New("job checker is required")
	}
	p := &Poller{
		checker: checker,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *Poller) PollUntilTerminal(ctx context.Context, jobID string, interval time.Duration, maxAttempts int) contractx.JobOutcome {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	outcome := contractx.JobOutcome{Job: contractx.AsyncJob{ID: jobID, State: contractx.JobSubmitted}}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := p.checker.Poll(ctx, jobID)
		outcome.Polls = attempt
		if err != nil {
			outcome.Job.State = contractx.JobFailed
			outcome.Error = fmt.Errorf("%w: poll job %s: %v", contractx.ErrRemoteCall, jobID, err).Error()
			return outcome
		}

		switch status.State {
		case contractx.JobCompleted:
			outcome.Job.State = contractx.JobCompleted
			outcome.ResultURI = status.OutputLocation
			return outcome
		case contractx.JobFailed:
			outcome.Job.State = contractx.JobFailed
			outcome.Error = status.FailureReason
			if outcome.Error == "" {
				outcome.Error = "unknown error"
			}
			return outcome
		default:
			outcome.Job.State = contractx.JobRunning
		}

		if attempt == maxAttempts {
			break
		}
		log.Debug().Str("job_id", jobID).Int("poll", attempt).Dur("interval", interval).Msg("job in progress")
		if err := p.sleep(ctx, interval); err != nil {
			outcome.Job.State = contractx.JobTimedOut
			outcome.Error = fmt.Errorf("%w: job %s wait interrupted: %v", contractx.ErrTimeout, jobID, err).Error()
			return outcome
		}
	}

	outcome.Job.State = contractx.JobTimedOut
	outcome.Error = fmt.Errorf("%w: job %s not terminal after %d polls", contractx.ErrTimeout, jobID, maxAttempts).Error()
	return outcome
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
