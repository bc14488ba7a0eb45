// Package shutdown releases engine resources in ordered phases when the
// process is asked to stop.
//
// Lower phases close first. Closers registered in the same phase run
// concurrently, and a failing closer does not stop the others.
package shutdown

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/logging"
)

// Standard phases.
const (
	PhaseIntake    = 10 // Stop accepting queries: HTTP and metrics listeners
	PhaseEngine    = 20 // Release the engine: suggestion index, provider clients
	PhaseTelemetry = 30 // Flush trace exporters last so shutdown itself is traced
)

// DefaultTimeout bounds ShutdownWithTimeout when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Func closes one resource.
type Func func(ctx context.Context) error

// Step records how one closer finished.
type Step struct {
	Name     string
	Phase    int
	Duration time.Duration
	Err      error
}

type registration struct {
	name  string
	phase int
	fn    Func
}

// Coordinator runs registered closers once.
type Coordinator struct {
	timeout time.Duration
	logger  *logging.Logger

	mu      sync.Mutex
	closers []registration
	steps   []Step

	once sync.Once
	done chan struct{}
	err  error
}

// New creates a coordinator. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, logger *logging.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{
		timeout: timeout,
		logger:  logger.WithComponent("shutdown"),
		done:    make(chan struct{}),
	}
}

// Register adds a closer to phase.
func (c *Coordinator) Register(name string, phase int, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, registration{name: name, phase: phase, fn: fn})
}

// Shutdown runs every closer, phase by phase. Later calls wait for the
// first one and return its error.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.err = c.run(ctx)
		close(c.done)
	})
	<-c.done
	return c.err
}

// ShutdownWithTimeout runs Shutdown bounded by the configured timeout.
func (c *Coordinator) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// Done is closed when shutdown has finished.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Steps returns per-closer results in completion order.
func (c *Coordinator) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Step(nil), c.steps...)
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	closers := append([]registration(nil), c.closers...)
	c.mu.Unlock()

	sort.SliceStable(closers, func(i, j int) bool {
		return closers[i].phase < closers[j].phase
	})

	var errs []error
	for _, phase := range groupByPhase(closers) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, errors.Wrap(err, "shutdown interrupted",
				errors.WithMetadata("phase", phaseName(phase[0].phase))))
			break
		}

		var g errgroup.Group
		for _, r := range phase {
			r := r
			g.Go(func() error {
				start := time.Now()
				err := r.fn(ctx)
				c.record(Step{Name: r.name, Phase: r.phase, Duration: time.Since(start), Err: err})
				return err
			})
		}
		// errgroup keeps only the first error; record() has them all.
		_ = g.Wait()
	}

	for _, s := range c.Steps() {
		if s.Err != nil {
			errs = append(errs, errors.Wrap(s.Err, "closing "+s.Name))
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) record(s Step) {
	fields := map[string]interface{}{
		"closer":   s.Name,
		"phase":    s.Phase,
		"duration": s.Duration.String(),
	}
	if s.Err != nil {
		fields["error"] = s.Err.Error()
		c.logger.Warn("close_failed", fields)
	} else {
		c.logger.Debug("closed", fields)
	}

	c.mu.Lock()
	c.steps = append(c.steps, s)
	c.mu.Unlock()
}

// groupByPhase splits phase-sorted closers into runs of equal phase.
func groupByPhase(closers []registration) [][]registration {
	var groups [][]registration
	for i := 0; i < len(closers); {
		j := i
		for j < len(closers) && closers[j].phase == closers[i].phase {
			j++
		}
		groups = append(groups, closers[i:j])
		i = j
	}
	return groups
}

func phaseName(phase int) string {
	switch phase {
	case PhaseIntake:
		return "intake"
	case PhaseEngine:
		return "engine"
	case PhaseTelemetry:
		return "telemetry"
	default:
		return "custom"
	}
}
