package behavior

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTracker(t *testing.T, cfg Config) *WindowTracker {
	t.Helper()
	tr := NewWindowTracker(logrus.New(), cfg)
	t.Cleanup(tr.Close)
	return tr
}

func TestTrack_BurstOn51stRequest(t *testing.T) {
	tr := newTracker(t, Config{})
	for i := 0; i < 50; i++ {
		risk := tr.Track("1.2.3.4", "/products", "GET", t0.Add(time.Duration(i)*time.Second))
		require.Zero(t, risk, "request %d", i+1)
	}
	risk := tr.Track("1.2.3.4", "/products", "GET", t0.Add(50*time.Second))
	assert.Equal(t, BurstRisk, risk)
}

func TestTrack_BurstWindowSlides(t *testing.T) {
	tr := newTracker(t, Config{})
	for i := 0; i < 50; i++ {
		tr.Track("1.2.3.4", "/products", "GET", t0)
	}
	// the first 50 fall out of the trailing minute
	risk := tr.Track("1.2.3.4", "/products", "GET", t0.Add(61*time.Second))
	assert.Zero(t, risk)
}

func TestTrack_PathDiversity(t *testing.T) {
	tr := newTracker(t, Config{})
	for i := 0; i < 20; i++ {
		risk := tr.Track("5.6.7.8", fmt.Sprintf("/p/%d", i), "GET", t0.Add(time.Duration(i)*time.Minute))
		require.Zero(t, risk)
	}
	risk := tr.Track("5.6.7.8", "/p/20", "GET", t0.Add(20*time.Minute))
	assert.Equal(t, DiversityRisk, risk)
}

func TestTrack_BurstWinsOverDiversity(t *testing.T) {
	tr := newTracker(t, Config{})
	var risk float64
	for i := 0; i < 51; i++ {
		risk = tr.Track("5.6.7.8", fmt.Sprintf("/p/%d", i), "GET", t0)
	}
	assert.Equal(t, BurstRisk, risk)
}

func TestTrack_PrunesOldEntries(t *testing.T) {
	tr := newTracker(t, Config{})
	for i := 0; i < 21; i++ {
		tr.Track("9.9.9.9", fmt.Sprintf("/p/%d", i), "GET", t0)
	}
	risk := tr.Track("9.9.9.9", "/fresh", "GET", t0.Add(time.Hour+time.Second))
	assert.Zero(t, risk)
	assert.Equal(t, Stats{Total: 1, Recent: 1, UniquePaths: 1}, tr.Stats("9.9.9.9", t0.Add(time.Hour+time.Second)))
}

func TestTrack_OutOfOrderTimestamps(t *testing.T) {
	tr := newTracker(t, Config{})
	tr.Track("1.1.1.1", "/a", "GET", t0.Add(10*time.Second))
	tr.Track("1.1.1.1", "/b", "GET", t0)
	tr.Track("1.1.1.1", "/c", "GET", t0.Add(5*time.Second))

	s := tr.shardFor("1.1.1.1")
	w := s.windows["1.1.1.1"]
	require.Len(t, w.entries, 3)
	assert.Equal(t, "/b", w.entries[0].path)
	assert.Equal(t, "/c", w.entries[1].path)
	assert.Equal(t, "/a", w.entries[2].path)
}

func TestTrack_MaxEntries(t *testing.T) {
	tr := newTracker(t, Config{MaxEntries: 10, BurstThreshold: 1000})
	for i := 0; i < 25; i++ {
		tr.Track("1.1.1.1", fmt.Sprintf("/p/%d", i), "GET", t0.Add(time.Duration(i)*time.Second))
	}
	st := tr.Stats("1.1.1.1", t0.Add(25*time.Second))
	assert.Equal(t, 10, st.Total)
	assert.Equal(t, 10, st.UniquePaths)
}

func TestTrack_ConcurrentSameIP(t *testing.T) {
	tr := newTracker(t, Config{BurstThreshold: 100000})
	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				tr.Track("1.2.3.4", "/products", "GET", t0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, tr.Stats("1.2.3.4", t0).Total)
}

func TestTrack_IPsAreIndependent(t *testing.T) {
	tr := newTracker(t, Config{})
	for i := 0; i < 60; i++ {
		tr.Track("1.2.3.4", "/products", "GET", t0)
	}
	assert.Zero(t, tr.Track("4.3.2.1", "/products", "GET", t0))
}

func TestSweep(t *testing.T) {
	tr := newTracker(t, Config{})
	tr.Track("1.1.1.1", "/a", "GET", t0)
	tr.Track("2.2.2.2", "/a", "GET", t0.Add(50*time.Minute))
	require.Equal(t, 2, tr.Len())

	removed := tr.Sweep(t0.Add(time.Hour + time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, Stats{}, tr.Stats("1.1.1.1", t0.Add(time.Hour+time.Minute)))
}

func TestClose_StopsSweeper(t *testing.T) {
	tr := NewWindowTracker(logrus.New(), Config{SweepInterval: time.Millisecond})
	tr.Track("1.1.1.1", "/a", "GET", time.Now().Add(-2*time.Hour))
	assert.Eventually(t, func() bool { return tr.Len() == 0 }, time.Second, 5*time.Millisecond)
	tr.Close()
	tr.Close()
}
