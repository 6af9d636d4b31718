package behavior

import (
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultWindow               = time.Hour
	DefaultBurstWindow          = time.Minute
	DefaultBurstThreshold       = 50
	DefaultUniquePathsThreshold = 20
	DefaultMaxEntries           = 10000

	BurstRisk     = 0.7
	DiversityRisk = 0.6

	shardCount = 64
)

type Config struct {
	Window               time.Duration
	BurstWindow          time.Duration
	BurstThreshold       int
	UniquePathsThreshold int
	// MaxEntries caps one window; the oldest entries are dropped first.
	MaxEntries    int
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.BurstWindow <= 0 {
		c.BurstWindow = DefaultBurstWindow
	}
	if c.BurstThreshold <= 0 {
		c.BurstThreshold = DefaultBurstThreshold
	}
	if c.UniquePathsThreshold <= 0 {
		c.UniquePathsThreshold = DefaultUniquePathsThreshold
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	return c
}

type Stats struct {
	Total       int `json:"total"`
	Recent      int `json:"recent"`
	UniquePaths int `json:"unique_paths"`
}

//go:generate mockery --name=Tracker --dir=. --output=./mocks --filename=tracker_mock.go --case=underscore --with-expecter
type Tracker interface {
	Track(ip, path, method string, now time.Time) float64
	Stats(ip string, now time.Time) Stats
}

type entry struct {
	at     time.Time
	path   string
	method string
}

type window struct {
	entries []entry
	paths   map[string]int
}

func (w *window) insert(e entry) {
	n := len(w.entries)
	if n == 0 || !e.at.Before(w.entries[n-1].at) {
		w.entries = append(w.entries, e)
	} else {
		i := sort.Search(n, func(i int) bool { return w.entries[i].at.After(e.at) })
		w.entries = append(w.entries, entry{})
		copy(w.entries[i+1:], w.entries[i:])
		w.entries[i] = e
	}
	w.paths[e.path]++
}

// prune drops entries older than cutoff, then the oldest entries beyond max.
func (w *window) prune(cutoff time.Time, max int) {
	drop := sort.Search(len(w.entries), func(i int) bool { return !w.entries[i].at.Before(cutoff) })
	if excess := len(w.entries) - drop - max; excess > 0 {
		drop += excess
	}
	if drop == 0 {
		return
	}
	for _, e := range w.entries[:drop] {
		if w.paths[e.path]--; w.paths[e.path] <= 0 {
			delete(w.paths, e.path)
		}
	}
	w.entries = append(w.entries[:0], w.entries[drop:]...)
}

func (w *window) countSince(since time.Time) int {
	i := sort.Search(len(w.entries), func(i int) bool { return !w.entries[i].at.Before(since) })
	return len(w.entries) - i
}

func (w *window) newest() time.Time {
	if len(w.entries) == 0 {
		return time.Time{}
	}
	return w.entries[len(w.entries)-1].at
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// WindowTracker keeps a sliding request window per client IP in a
// lock-striped map. Requests for the same IP serialize on one shard.
type WindowTracker struct {
	cfg    Config
	logger *logrus.Logger
	shards [shardCount]*shard
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewWindowTracker(logger *logrus.Logger, cfg Config) *WindowTracker {
	t := &WindowTracker{
		cfg:    cfg.withDefaults(),
		logger: logger,
		done:   make(chan struct{}),
	}
	for i := range t.shards {
		t.shards[i] = &shard{windows: make(map[string]*window)}
	}
	if t.cfg.SweepInterval > 0 {
		t.wg.Add(1)
		go t.sweepLoop()
	}
	return t
}

func (t *WindowTracker) shardFor(ip string) *shard {
	return t.shards[xxhash.Sum64String(ip)%shardCount]
}

// Track records the request and returns its behavior risk: BurstRisk when
// the burst window holds more than BurstThreshold requests, else
// DiversityRisk when the full window spans more than UniquePathsThreshold
// distinct paths, else 0.
func (t *WindowTracker) Track(ip, path, method string, now time.Time) float64 {
	s := t.shardFor(ip)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[ip]
	if !ok {
		w = &window{paths: make(map[string]int)}
		s.windows[ip] = w
	}
	w.insert(entry{at: now, path: path, method: method})
	w.prune(now.Add(-t.cfg.Window), t.cfg.MaxEntries)

	if w.countSince(now.Add(-t.cfg.BurstWindow)) > t.cfg.BurstThreshold {
		return BurstRisk
	}
	if len(w.paths) > t.cfg.UniquePathsThreshold {
		return DiversityRisk
	}
	return 0
}

func (t *WindowTracker) Stats(ip string, now time.Time) Stats {
	s := t.shardFor(ip)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[ip]
	if !ok {
		return Stats{}
	}
	w.prune(now.Add(-t.cfg.Window), t.cfg.MaxEntries)
	return Stats{
		Total:       len(w.entries),
		Recent:      w.countSince(now.Add(-t.cfg.BurstWindow)),
		UniquePaths: len(w.paths),
	}
}

// Sweep removes windows whose newest entry is older than the window length
// and returns how many were removed.
func (t *WindowTracker) Sweep(now time.Time) int {
	cutoff := now.Add(-t.cfg.Window)
	removed := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for ip, w := range s.windows {
			if w.newest().Before(cutoff) {
				delete(s.windows, ip)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len is the number of tracked IPs.
func (t *WindowTracker) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

func (t *WindowTracker) sweepLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := t.Sweep(time.Now()); removed > 0 && t.logger != nil {
				t.logger.WithField("removed", removed).Debug("swept idle behavior windows")
			}
		case <-t.done:
			return
		}
	}
}

func (t *WindowTracker) Close() {
	t.once.Do(func() {
		close(t.done)
		t.wg.Wait()
	})
}
