package xchain_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]slog.Value {
	m := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestChainAttrs(t *testing.T) {
	c := xchain.New()
	c.Debug = xchain.DecisionOn
	c.ParentHopID = "b7ad6b7169203331"

	ctx, err := xchain.WithChain(context.Background(), c)
	require.NoError(t, err)

	m := attrMap(xchain.ChainAttrs(ctx))

	assert.Equal(t, c.ChainID, m[xchain.KeyChainID].String())
	assert.Equal(t, int64(0), m[xchain.KeyChainLength].Int64())
	assert.Equal(t, true, m[xchain.KeyDebugEnabled].Bool())
	assert.Equal(t, c.HopID, m[xchain.KeyHopID].String())
	assert.Equal(t, c.ParentHopID, m[xchain.KeyParentHopID].String())
	assert.Equal(t, c.InvocationID, m[xchain.KeyInvocationID].String())
}

func TestChainAttrsUnscoped(t *testing.T) {
	// 无链作用域：降级为 unscoped 占位，绝不 panic
	attrs := xchain.ChainAttrs(context.Background())
	require.Len(t, attrs, 1)
	assert.Equal(t, xchain.KeyChainID, attrs[0].Key)
	assert.Equal(t, xchain.UnscopedChainID, attrs[0].Value.String())

	attrs = xchain.ChainAttrs(nil)
	require.Len(t, attrs, 1)
	assert.Equal(t, xchain.UnscopedChainID, attrs[0].Value.String())
}

func TestAppendAttrsOmitsEmptyOptionalFields(t *testing.T) {
	c := xchain.Chain{ChainID: "0af7651916cd43dd8448eb211c80319c", ChainLength: 2}
	m := attrMap(xchain.AppendAttrs(nil, c))

	// 必带字段
	assert.Contains(t, m, xchain.KeyChainID)
	assert.Contains(t, m, xchain.KeyChainLength)
	assert.Contains(t, m, xchain.KeyDebugEnabled)
	assert.Equal(t, false, m[xchain.KeyDebugEnabled].Bool())

	// 可选字段为空时不输出
	assert.NotContains(t, m, xchain.KeyHopID)
	assert.NotContains(t, m, xchain.KeyParentHopID)
	assert.NotContains(t, m, xchain.KeyInvocationID)
}
