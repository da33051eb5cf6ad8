package connresolve

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls atomic.Int64
	value string
}

func (f *fakeClient) ProviderName() string { return "fake" }

func (f *fakeClient) GetSecret(ctx context.Context, path string) (string, error) {
	f.calls.Add(1)
	return f.value, nil
}

func TestResolve_NoTokens_ReturnsUnchangedWithoutVaultCall(t *testing.T) {
	client := &fakeClient{value: "p@ss"}
	r := New(client, time.Minute)

	out, err := r.Resolve(context.Background(), "Server=s;User=u")
	require.NoError(t, err)
	assert.Equal(t, "Server=s;User=u", out)
	assert.Equal(t, int64(0), client.calls.Load())
}

func TestResolve_SingleToken_FetchesOnce(t *testing.T) {
	client := &fakeClient{value: "p@ss"}
	r := New(client, time.Minute)

	out, err := r.Resolve(context.Background(), "Server=s;User=u;Password={vault:oracle/hr}")
	require.NoError(t, err)
	assert.Equal(t, "Server=s;User=u;Password=p@ss", out)

	out2, err := r.Resolve(context.Background(), "Server=s;User=u;Password={vault:oracle/hr}")
	require.NoError(t, err)
	assert.Equal(t, out, out2)
	assert.Equal(t, int64(1), client.calls.Load())
}

func TestResolve_Idempotent(t *testing.T) {
	client := &fakeClient{value: "p@ss"}
	r := New(client, time.Minute)

	first, err := r.Resolve(context.Background(), "{vault:a}-{vault:b}")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
