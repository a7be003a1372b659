package xcodec_test

import (
	"context"
	"testing"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSpanContextFromChain(t *testing.T) {
	c := xchain.New()
	c.Debug = xchain.DecisionOn

	sc, ok := xcodec.SpanContextFromChain(c)
	require.True(t, ok)
	assert.Equal(t, c.ChainID, sc.TraceID().String())
	assert.Equal(t, c.HopID, sc.SpanID().String())
	assert.True(t, sc.IsRemote())
	assert.True(t, sc.IsSampled(), "forced-debug chain must be sampled at the backend")

	c.Debug = xchain.DecisionOff
	sc, ok = xcodec.SpanContextFromChain(c)
	require.True(t, ok)
	assert.False(t, sc.IsSampled())
}

func TestSpanContextFromChainNonW3CIDs(t *testing.T) {
	// 异构上游的不透明标识：跳过桥接而非报错
	_, ok := xcodec.SpanContextFromChain(xchain.Chain{ChainID: "req-12345", HopID: "hop-1"})
	assert.False(t, ok)

	_, ok = xcodec.SpanContextFromChain(xchain.Chain{})
	assert.False(t, ok)
}

func TestContextWithChainSpan(t *testing.T) {
	c := xchain.New()
	c.Debug = xchain.DecisionOn
	ctx, err := xchain.WithChain(context.Background(), c)
	require.NoError(t, err)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.NeverSample())),
	)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// 业务代码在桥接后的 context 上开 span：归入同一条链且继承采样标志
	_, span := tp.Tracer("test").Start(xcodec.ContextWithChainSpan(ctx), "handler")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, c.ChainID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, c.HopID, spans[0].Parent.SpanID().String())
	assert.True(t, spans[0].Parent.IsRemote())
}

func TestContextWithChainSpanPassthrough(t *testing.T) {
	// 无链作用域或非 W3C 标识：context 原样返回
	ctx := context.Background()
	assert.Equal(t, ctx, xcodec.ContextWithChainSpan(ctx))

	opaque, err := xchain.WithChain(ctx, xchain.Chain{ChainID: "req-1", HopID: "h"})
	require.NoError(t, err)
	got := xcodec.ContextWithChainSpan(opaque)
	assert.False(t, trace.SpanContextFromContext(got).IsValid())
}
