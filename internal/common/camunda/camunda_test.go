package camunda

import (
	"context"
	stderrors "errors"
	"testing"

	"prism-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"process definition not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg      string
		wantCode errors.ErrorCode
	}{
		{"context deadline exceeded", "TIMEOUT_ERROR"},
		{"process not found", "RESOURCE_NOT_FOUND"},
		{"unauthorized", "AUTHENTICATION_ERROR"},
		{"connection refused", "EXTERNAL_SERVICE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := mapZeebeError(stderrors.New(tt.msg), "topology", 2)
			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

type recordingTracer struct {
	started []string
	ended   int
}

func (r *recordingTracer) StartSpan(ctx context.Context, taskType string, jobKey int64) (context.Context, func(error)) {
	r.started = append(r.started, taskType)
	return ctx, func(error) { r.ended++ }
}

func TestInstrument_CallsHandlerInsideSpan(t *testing.T) {
	tracer := &recordingTracer{}
	called := false

	h := Instrument("search-web", tracer, func(client worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, int64(9), job.Key)
		assert.Equal(t, 0, tracer.ended)
	})

	h(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 9}})

	assert.True(t, called)
	assert.Equal(t, []string{"search-web"}, tracer.started)
	assert.Equal(t, 1, tracer.ended)
}
