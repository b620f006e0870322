// Package progress tracks running operations by key and predicts how long
// they will take from previous runs.
package progress

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Memory stores how long operations took so later runs can be predicted.
type Memory interface {
	Predict(key string) (time.Duration, bool, error)
	Record(key string, d time.Duration) error
}

// Op describes one running operation.
type Op struct {
	Key       string
	Started   time.Time
	Predicted time.Duration // zero when there is no history
}

// Fraction estimates completion in [0, 0.95] from the prediction. It
// returns -1 when nothing is known.
func (o Op) Fraction(now time.Time) float64 {
	if o.Predicted <= 0 {
		return -1
	}
	f := float64(now.Sub(o.Started)) / float64(o.Predicted)
	return min(max(f, 0), 0.95)
}

type running struct {
	count     int
	started   time.Time
	predicted time.Duration
}

// Tracker counts Start and Stop calls per key. A key is active while it has
// more starts than stops. When a key goes idle its duration is recorded in
// the memory. Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	ops    map[string]*running
	memory Memory
	log    *slog.Logger
	now    func() time.Time
}

// NewTracker creates a tracker. memory may be nil.
func NewTracker(memory Memory, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		ops:    make(map[string]*running),
		memory: memory,
		log:    logger,
		now:    time.Now,
	}
}

func (t *Tracker) Start(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if op, ok := t.ops[key]; ok {
		op.count++
		return
	}
	op := &running{count: 1, started: t.now()}
	if t.memory != nil {
		d, ok, err := t.memory.Predict(key)
		if err != nil {
			t.log.Debug("progress prediction failed", "key", key, "err", err)
		} else if ok {
			op.predicted = d
		}
	}
	t.ops[key] = op
}

func (t *Tracker) Stop(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[key]
	if !ok {
		return
	}
	op.count--
	if op.count > 0 {
		return
	}
	delete(t.ops, key)
	if t.memory != nil {
		if err := t.memory.Record(key, t.now().Sub(op.started)); err != nil {
			t.log.Debug("progress record failed", "key", key, "err", err)
		}
	}
}

// Active returns the running operations ordered by start time.
func (t *Tracker) Active() []Op {
	t.mu.Lock()
	defer t.mu.Unlock()
	ops := make([]Op, 0, len(t.ops))
	for key, op := range t.ops {
		ops = append(ops, Op{Key: key, Started: op.started, Predicted: op.predicted})
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Started.Equal(ops[j].Started) {
			return ops[i].Key < ops[j].Key
		}
		return ops[i].Started.Before(ops[j].Started)
	})
	return ops
}

// IsActive reports whether key is running.
func (t *Tracker) IsActive(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ops[key]
	return ok
}
