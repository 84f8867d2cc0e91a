package internal

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrencyExtractor tracks how many extractions run at once
type concurrencyExtractor struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (c *concurrencyExtractor) Extract(_ context.Context, job ExtractJob) (*ExtractResult, error) {
	n := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return writeJobOutput(job)
}

func TestAcquireAllBoundsConcurrency(t *testing.T) {
	ext := &concurrencyExtractor{}
	e := newTestEngine(t, ext, stubSources{NoCredentials{}})

	var reqs []AcquisitionRequest
	for i := range 12 {
		req, err := e.Request(fmt.Sprintf("https://example-video.test/v%d", i), AssetAudio)
		require.NoError(t, err)
		reqs = append(reqs, req)
	}

	seen := map[int]bool{}
	for res := range e.AcquireAll(context.Background(), reqs, 3) {
		assert.True(t, res.Outcome.OK(), res.Outcome.Message)
		assert.Equal(t, reqs[res.Index].URL, res.Outcome.URL)
		seen[res.Index] = true
	}

	assert.Len(t, seen, len(reqs))
	assert.LessOrEqual(t, ext.peak.Load(), int32(3))
	assert.Positive(t, ext.peak.Load())
}

func TestAcquireAllIsolatesFailures(t *testing.T) {
	ext := &stubExtractor{respond: func(_ int, job ExtractJob) (*ExtractResult, error) {
		if job.URL == "https://example-video.test/bad" {
			return nil, errors.New("Video unavailable")
		}
		return writeJobOutput(job)
	}}
	e := newTestEngine(t, ext, stubSources{NoCredentials{}})

	var reqs []AcquisitionRequest
	for _, u := range []string{"https://example-video.test/a", "https://example-video.test/bad", "https://example-video.test/b"} {
		req, err := e.Request(u, AssetPreview)
		require.NoError(t, err)
		reqs = append(reqs, req)
	}

	outcomes := make([]Outcome, len(reqs))
	for res := range e.AcquireAll(context.Background(), reqs, 0) {
		outcomes[res.Index] = res.Outcome
	}

	assert.True(t, outcomes[0].OK())
	assert.Equal(t, ClassActionable, outcomes[1].Class)
	assert.True(t, outcomes[2].OK())
}

func TestAcquireAllEmpty(t *testing.T) {
	e := newTestEngine(t, &stubExtractor{}, stubSources{NoCredentials{}})
	count := 0
	for range e.AcquireAll(context.Background(), nil, 2) {
		count++
	}
	assert.Zero(t, count)
}
