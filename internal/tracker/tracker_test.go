package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/rohankatakam/reqtrack/internal/farm"
	"github.com/rohankatakam/reqtrack/internal/reqgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return New(reqgraph.New(), farm.New(4), Options{Env: map[string]string{}, Values: map[string]any{}})
}

func TestRunRequestMemoizesSuccessfulResult(t *testing.T) {
	tr := newTestTracker()
	calls := 0
	req := Request{
		ID:   "R",
		Type: "build",
		Run: func(ctx context.Context, input any, api RunAPI, f *farm.Farm, options Options) (any, error) {
			calls++
			return 42, nil
		},
	}

	result, err := tr.RunRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, tr.HasValidResult("R"))

	result, err = tr.RunRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls, "second call must be served from the memoized result")
}

func TestRunRequestFailureMarksInvalidAndReconcilesSubrequests(t *testing.T) {
	tr := newTestTracker()

	child := Request{
		ID:   "C",
		Type: "build",
		Run: func(ctx context.Context, input any, api RunAPI, f *farm.Farm, options Options) (any, error) {
			return nil, errors.New("boom")
		},
	}
	parent := Request{
		ID:   "P",
		Type: "build",
		Run: func(ctx context.Context, input any, api RunAPI, f *farm.Farm, options Options) (any, error) {
			_, err := api.RunRequest(ctx, child)
			if err != nil {
				return nil, err
			}
			return "unreachable", nil
		},
	}

	_, err := tr.RunRequest(context.Background(), parent)
	require.Error(t, err)

	assert.True(t, tr.Graph().IsInvalid("P"))
	assert.True(t, tr.Graph().IsInvalid("C"))
	assert.Equal(t, []string{"C"}, tr.Graph().Graph().NodesFrom("P", reqgraph.EdgeSubrequest))
}

func TestRunRequestRerunsAfterInvalidation(t *testing.T) {
	tr := newTestTracker()
	value := 1
	req := Request{
		ID:   "R",
		Type: "build",
		Run: func(ctx context.Context, input any, api RunAPI, f *farm.Farm, options Options) (any, error) {
			api.InvalidateOnFileUpdate("/a.js")
			return value, nil
		},
	}

	result, err := tr.RunRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result)

	tr.Graph().InvalidateNode("R")
	assert.False(t, tr.HasValidResult("R"))

	value = 2
	result, err = tr.RunRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.True(t, tr.HasValidResult("R"))
}

type abortAfterFirst struct{ calls int }

func (a *abortAfterFirst) Aborted() bool {
	a.calls++
	return a.calls > 1
}

func TestRunRequestAbortSurfacesAsAbortedFailure(t *testing.T) {
	tr := newTestTracker()
	signal := &abortAfterFirst{}
	tr.SetSignal(signal)

	req := Request{
		ID:   "R",
		Type: "build",
		Run: func(ctx context.Context, input any, api RunAPI, f *farm.Farm, options Options) (any, error) {
			return 1, nil
		},
	}

	_, err := tr.RunRequest(context.Background(), req)
	require.NoError(t, err)

	tr.Graph().InvalidateNode("R")
	_, err = tr.RunRequest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, tr.Graph().IsInvalid("R"))
}
