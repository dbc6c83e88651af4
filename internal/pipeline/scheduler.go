package pipeline

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mira-agent/mira/internal/domain"
)

// Task is a unit of deferred render work awaiting admission.
type Task struct {
	ID            string
	Priority      int
	Run           func() error
	EstimatedCost time.Duration
	CanDefer      bool

	seq uint64 // insertion order, tie-break within a priority class
}

// FlushReport summarizes one drain of the work queue.
type FlushReport struct {
	Executed int
	Skipped  int
	Deferred int
	Errors   int
}

// taskScheduler is a priority queue of deferred work admitted against the
// remaining frame budget. One queue slice per priority class keeps ordering
// trivially stable: priority first, insertion order second.
type taskScheduler struct {
	queues           [5][]Task
	nextSeq          uint64
	marginFactor     float64
	deferLowPriority bool
	clock            func() time.Time

	executions int64
	skips      int64
	deferrals  int64
	errors     int64
}

func newTaskScheduler(marginFactor float64, deferLowPriority bool) *taskScheduler {
	return &taskScheduler{
		marginFactor:     marginFactor,
		deferLowPriority: deferLowPriority,
		clock:            time.Now,
	}
}

// Schedule inserts work in priority order. An empty id gets a generated one;
// a zero cost estimate defaults to 1ms. Re-using an id replaces the pending
// entry. Returns the effective id.
func (s *taskScheduler) Schedule(id string, run func() error, priority int, cost time.Duration) string {
	if id == "" {
		id = uuid.NewString()
	} else {
		s.Cancel(id)
	}
	if cost <= 0 {
		cost = time.Millisecond
	}
	p := domain.ClampPriority(priority)
	s.nextSeq++
	s.queues[p] = append(s.queues[p], Task{
		ID:            id,
		Priority:      p,
		Run:           run,
		EstimatedCost: cost,
		CanDefer:      p >= domain.PriorityLow,
		seq:           s.nextSeq,
	})
	return id
}

// Cancel removes a not-yet-executed task. No-op when absent.
func (s *taskScheduler) Cancel(id string) bool {
	for p := range s.queues {
		for i, t := range s.queues[p] {
			if t.ID == id {
				s.queues[p] = append(s.queues[p][:i], s.queues[p][i+1:]...)
				return true
			}
		}
	}
	return false
}

// Len returns the number of queued tasks across all classes.
func (s *taskScheduler) Len() int {
	n := 0
	for p := range s.queues {
		n += len(s.queues[p])
	}
	return n
}

// Clear drops all queued work.
func (s *taskScheduler) Clear() {
	for p := range s.queues {
		s.queues[p] = nil
	}
}

// Flush drains the queue in priority order against the remaining budget.
//
// Critical tasks always execute. Every other task is admitted only while
// elapsed-since-flush-start plus its estimated cost stays inside
// remaining × marginFactor; otherwise it is skipped and draining continues.
// Once more than half the remaining budget is consumed, low and deferred
// work is bulk-deferred to the next flush when deferLowPriority is set.
// A skipped deferrable task is also retained; a skipped non-deferrable task
// is dropped. A panicking or erroring task is logged and counted, and never
// blocks the tasks behind it.
func (s *taskScheduler) Flush(start time.Time, remaining time.Duration) FlushReport {
	var rep FlushReport
	admitWindow := time.Duration(float64(remaining) * s.marginFactor)
	halfBudget := remaining / 2

	var retained [5][]Task
	bulkDefer := false

	for p := 0; p < 5; p++ {
		for _, t := range s.queues[p] {
			elapsed := s.clock().Sub(start)

			if bulkDefer && t.Priority >= domain.PriorityLow {
				retained[p] = append(retained[p], t)
				rep.Deferred++
				continue
			}

			if t.Priority != domain.PriorityCritical {
				if elapsed+t.EstimatedCost > admitWindow {
					rep.Skipped++
					if t.CanDefer {
						retained[p] = append(retained[p], t)
					}
					continue
				}
			}

			if s.runIsolated(t) {
				rep.Executed++
			} else {
				rep.Errors++
			}

			if s.deferLowPriority && !bulkDefer && s.clock().Sub(start) > halfBudget {
				bulkDefer = true
			}
		}
	}

	s.queues = retained
	s.executions += int64(rep.Executed)
	s.skips += int64(rep.Skipped)
	s.deferrals += int64(rep.Deferred)
	s.errors += int64(rep.Errors)
	return rep
}

// runIsolated executes one task, converting panics into logged failures so a
// misbehaving callback cannot take down the frame loop.
func (s *taskScheduler) runIsolated(t Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pipeline] task %s (%s) panicked: %v", t.ID, domain.PriorityLabel(t.Priority), r)
			ok = false
		}
	}()
	if t.Run == nil {
		return true
	}
	if err := t.Run(); err != nil {
		log.Printf("[pipeline] task %s (%s) failed: %v", t.ID, domain.PriorityLabel(t.Priority), err)
		return false
	}
	return true
}

// ResetCounters zeroes the cumulative execution counters.
func (s *taskScheduler) ResetCounters() {
	s.executions, s.skips, s.deferrals, s.errors = 0, 0, 0, 0
}
