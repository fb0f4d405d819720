package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitWithExporter_RecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	shutdown := InitWithExporter(exp, "blockworld-test")

	_, span := Tracer().Start(context.Background(), "stream.build_batch")
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "stream.build_batch", spans[0].Name)

	require.NoError(t, shutdown(context.Background()))
}
