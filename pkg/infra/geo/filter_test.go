package geo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rimareum/gatekeeper/pkg/infra/geo"
	"github.com/rimareum/gatekeeper/pkg/infra/geo/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFilter_DeniesCountryOutsideAllowList(t *testing.T) {
	resolver := new(mocks.Resolver)
	resolver.On("ResolveCountry", mock.Anything, "1.2.3.4").Return("US", nil).Once()

	f := geo.NewFilter(logrus.New(), resolver, []string{"FR"})
	v := f.Check(context.Background(), "1.2.3.4")

	assert.False(t, v.Allowed)
	assert.Equal(t, "US", v.Country)
	assert.Equal(t, geo.SourceLookup, v.Source)
	resolver.AssertExpectations(t)
}

func TestFilter_CachesResolution(t *testing.T) {
	resolver := new(mocks.Resolver)
	resolver.On("ResolveCountry", mock.Anything, "1.2.3.4").Return("FR", nil).Once()

	f := geo.NewFilter(logrus.New(), resolver, []string{"fr"})
	first := f.Check(context.Background(), "1.2.3.4")
	second := f.Check(context.Background(), "1.2.3.4")

	assert.True(t, first.Allowed)
	assert.True(t, second.Allowed)
	assert.Equal(t, geo.SourceCache, second.Source)
	resolver.AssertNumberOfCalls(t, "ResolveCountry", 1)
}

func TestFilter_FailsOpenOnTimeout(t *testing.T) {
	resolver := new(mocks.Resolver)
	resolver.On("ResolveCountry", mock.Anything, "1.2.3.4").Return("", context.DeadlineExceeded).Twice()

	f := geo.NewFilter(logrus.New(), resolver, []string{"FR"})
	v := f.Check(context.Background(), "1.2.3.4")
	assert.True(t, v.Allowed)
	assert.Equal(t, geo.SourceFailed, v.Source)

	// failures are not cached
	f.Check(context.Background(), "1.2.3.4")
	resolver.AssertNumberOfCalls(t, "ResolveCountry", 2)
}

func TestFilter_EmptyAllowListDisablesPolicy(t *testing.T) {
	resolver := new(mocks.Resolver)
	f := geo.NewFilter(logrus.New(), resolver, nil)

	v := f.Check(context.Background(), "1.2.3.4")
	assert.True(t, v.Allowed)
	assert.Equal(t, geo.SourceDisabled, v.Source)
	resolver.AssertNotCalled(t, "ResolveCountry", mock.Anything, mock.Anything)
}

func TestFilter_SkipsNonPublicAddresses(t *testing.T) {
	resolver := new(mocks.Resolver)
	f := geo.NewFilter(logrus.New(), resolver, []string{"FR"})

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.1.10", "::1", "169.254.1.1", "unknown", ""} {
		v := f.Check(context.Background(), ip)
		assert.True(t, v.Allowed, ip)
		assert.Equal(t, geo.SourceSkipped, v.Source, ip)
	}
	resolver.AssertNotCalled(t, "ResolveCountry", mock.Anything, mock.Anything)
}

func TestFilter_AllowedCountriesNormalized(t *testing.T) {
	f := geo.NewFilter(logrus.New(), new(mocks.Resolver), []string{" fr", "DZ", "ae", "FR", ""})
	assert.Equal(t, []string{"FR", "DZ", "AE"}, f.AllowedCountries())
}

type slowResolver struct {
	calls   atomic.Int32
	release chan struct{}
}

func (r *slowResolver) ResolveCountry(ctx context.Context, _ string) (string, error) {
	r.calls.Add(1)
	select {
	case <-r.release:
		return "DZ", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestFilter_CollapsesConcurrentLookups(t *testing.T) {
	resolver := &slowResolver{release: make(chan struct{})}
	f := geo.NewFilter(logrus.New(), resolver, []string{"DZ"})

	var wg sync.WaitGroup
	results := make(chan geo.Verdict, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.Check(context.Background(), "41.200.1.1")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(resolver.release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.True(t, v.Allowed)
		assert.Equal(t, "DZ", v.Country)
	}
	assert.Equal(t, int32(1), resolver.calls.Load())
}

func TestFilter_CallerCancellation(t *testing.T) {
	resolver := &slowResolver{release: make(chan struct{})}
	defer close(resolver.release)
	f := geo.NewFilter(logrus.New(), resolver, []string{"FR"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	v := f.Check(ctx, "1.2.3.4")
	assert.True(t, v.Allowed)
	assert.Equal(t, geo.SourceFailed, v.Source)
}

func TestFilter_SharedLookupOutlivesFirstCaller(t *testing.T) {
	resolver := &slowResolver{release: make(chan struct{})}
	f := geo.NewFilter(logrus.New(), resolver, []string{"DZ"})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan geo.Verdict, 1)
	go func() { first <- f.Check(ctx, "41.200.1.1") }()
	time.Sleep(20 * time.Millisecond)

	second := make(chan geo.Verdict, 1)
	go func() { second <- f.Check(context.Background(), "41.200.1.1") }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.Equal(t, geo.SourceFailed, (<-first).Source)

	close(resolver.release)
	v := <-second
	assert.Equal(t, geo.SourceLookup, v.Source)
	assert.Equal(t, "DZ", v.Country)
	assert.Equal(t, int32(1), resolver.calls.Load())

	assert.Equal(t, geo.SourceCache, f.Check(context.Background(), "41.200.1.1").Source)
}

func TestFilter_LookupHasItsOwnTimeout(t *testing.T) {
	resolver := &slowResolver{release: make(chan struct{})}
	defer close(resolver.release)
	f := geo.NewFilter(logrus.New(), resolver, []string{"FR"}, geo.WithTimeout(30*time.Millisecond))

	start := time.Now()
	v := f.Check(context.Background(), "1.2.3.4")
	assert.True(t, v.Allowed)
	assert.Equal(t, geo.SourceFailed, v.Source)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBreakerResolver_PropagatesErrors(t *testing.T) {
	resolver := new(mocks.Resolver)
	resolver.On("ResolveCountry", mock.Anything, "1.2.3.4").Return("", errors.New("503")).Once()
	resolver.On("ResolveCountry", mock.Anything, "5.6.7.8").Return("FR", nil).Once()

	br := geo.NewBreakerResolver(resolver, passthroughBreaker{})
	_, err := br.ResolveCountry(context.Background(), "1.2.3.4")
	assert.Error(t, err)

	country, err := br.ResolveCountry(context.Background(), "5.6.7.8")
	assert.NoError(t, err)
	assert.Equal(t, "FR", country)
}

type passthroughBreaker struct{}

func (passthroughBreaker) Execute(fn func() error) error { return fn() }
func (passthroughBreaker) State() string                 { return "closed" }
