package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(GraphMutations.WithLabelValues("follow", "create", "ok"))
	RecordMutation("follow", "create", "")
	assert.Equal(t, before+1, testutil.ToFloat64(GraphMutations.WithLabelValues("follow", "create", "ok")))

	before = testutil.ToFloat64(GraphMutations.WithLabelValues("reaction", "create", "CONFLICT"))
	RecordMutation("reaction", "create", "CONFLICT")
	assert.Equal(t, before+1, testutil.ToFloat64(GraphMutations.WithLabelValues("reaction", "create", "CONFLICT")))
}

func TestTrackQuery(t *testing.T) {
	done := TrackQuery("select", "posts")
	done()
	assert.Equal(t, 1, testutil.CollectAndCount(DatabaseQueryLatency))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "murmur-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartServiceSpan(context.Background(), "posts", "create")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}
