package plagiarism

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	executed *atomic.Int32
	err      error
}

func (j *countingJob) Execute(context.Context) error {
	j.executed.Add(1)
	return j.err
}

type panickingJob struct {
	executed *atomic.Int32
}

func (j *panickingJob) Execute(context.Context) error {
	j.executed.Add(1)
	panic("comparison went sideways")
}

func TestWorkerPool_ExecutesSubmittedJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background())

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(&countingJob{executed: &executed}))
	}
	pool.Close()

	assert.Equal(t, int32(10), executed.Load())
}

func TestWorkerPool_SurvivesFailingAndPanickingJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background())

	var executed atomic.Int32
	require.NoError(t, pool.Submit(&panickingJob{executed: &executed}))
	require.NoError(t, pool.Submit(&countingJob{executed: &executed, err: errors.New("boom")}))
	require.NoError(t, pool.Submit(&countingJob{executed: &executed}))
	pool.Close()

	assert.Equal(t, int32(3), executed.Load())
}

func TestWorkerPool_SubmitAfterCloseFails(t *testing.T) {
	pool := NewWorkerPool(context.Background())
	pool.Close()

	assert.Error(t, pool.Submit(&countingJob{executed: &atomic.Int32{}}))
}
