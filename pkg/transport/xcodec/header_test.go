package xcodec_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	c := propagated(xchain.DecisionOn)

	h := make(http.Header)
	xcodec.InjectToHeader(h, c)
	in := xcodec.ExtractFromHeader(h)

	assert.Equal(t, c, in.Chain)
}

func TestExtractFromHeaderMissing(t *testing.T) {
	in := xcodec.ExtractFromHeader(nil)
	assert.True(t, in.Fresh)
	assert.Len(t, in.Chain.ChainID, 32)

	in = xcodec.ExtractFromHeader(make(http.Header))
	assert.True(t, in.Fresh)
}

func TestExtractFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(xcodec.HeaderChainID, "abc")
	req.Header.Set(xcodec.HeaderChainLength, "2")
	req.Header.Set(xcodec.HeaderDebugOverride, "true")

	in := xcodec.ExtractFromRequest(req)
	assert.Equal(t, "abc", in.Chain.ChainID)
	assert.Equal(t, 2, in.Chain.ChainLength)
	assert.True(t, in.Override)

	in = xcodec.ExtractFromRequest(nil)
	assert.True(t, in.Fresh)
}

func TestInjectToRequest(t *testing.T) {
	c := xchain.New()
	c.Debug = xchain.DecisionOn
	ctx, err := xchain.WithChain(context.Background(), c)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	xcodec.InjectToRequest(ctx, req)

	// 出站携带的是下游视图：深度 +1，本跳成为父跳
	assert.Equal(t, c.ChainID, req.Header.Get(xcodec.HeaderChainID))
	assert.Equal(t, "1", req.Header.Get(xcodec.HeaderChainLength))
	assert.Equal(t, c.HopID, req.Header.Get(xcodec.HeaderParentHopID))
	assert.Equal(t, "true", req.Header.Get(xcodec.HeaderDebugEnabled))

	// 链作用域之外不写任何 Header
	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	xcodec.InjectToRequest(context.Background(), bare)
	assert.Empty(t, bare.Header.Get(xcodec.HeaderChainID))

	// nil Header 请求不 panic
	xcodec.InjectToRequest(ctx, &http.Request{})
	xcodec.InjectToRequest(ctx, nil)
}

func TestTransportRoundTripper(t *testing.T) {
	c := xchain.New()
	ctx, err := xchain.WithChain(context.Background(), c)
	require.NoError(t, err)

	var gotChainID, gotLength string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotChainID = r.Header.Get(xcodec.HeaderChainID)
		gotLength = r.Header.Get(xcodec.HeaderChainLength)
	}))
	defer srv.Close()

	client := &http.Client{Transport: xcodec.Transport(nil)}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, c.ChainID, gotChainID, "outbound call must carry the chain id")
	assert.Equal(t, "1", gotLength, "fresh origin chain propagates with length 1")
}
