package observability

import (
	"context"
	"testing"
	"time"

	"template-builder/internal/common/config"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoop(t *testing.T) {
	o := NewNoop()
	ctx, span := o.StartSpan(context.Background(), "build", attribute.String("templateId", "tpl-1"))
	assert.NotNil(t, ctx)
	span.End()

	o.RecordBuildProcessed(ctx, "completed", "")
	o.RecordBuildDuration(ctx, time.Second, "completed")
	o.Shutdown()
}

func TestNew_WithoutTracing(t *testing.T) {
	o := New("template-builder-test", config.TracingConfig{})
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "build")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	o.RecordBuildProcessed(ctx, "failed", "NOT_FOUND")
}
