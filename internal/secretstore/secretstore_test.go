package secretstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailing_GetSecretAlwaysReturnsTheConstructionError(t *testing.T) {
	cause := errors.New("unknown provider \"backend-c\"")
	client := Failing(cause)

	assert.Equal(t, "unavailable", client.ProviderName())

	_, err := client.GetSecret(context.Background(), "any/path")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestNew_UnknownProviderIsRejected(t *testing.T) {
	_, err := New(Config{Provider: "backend-c"}, nil)
	assert.Error(t, err)
}

func TestNew_DefaultsToBackendA(t *testing.T) {
	client, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "backend-a", client.ProviderName())
}

func TestBackendA_GetSecret_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"data":{"value":"s3cr3t"}}}`))
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "backend-a", BaseURL: srv.URL, Token: "tok123"}, nil)
	require.NoError(t, err)

	value, err := client.GetSecret(context.Background(), "path/to/secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", value)
}

func TestBackendA_GetSecret_NotFoundWhenValueEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"data":{"value":""}}}`))
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "backend-a", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

func TestBackendA_GetSecret_TransportErrorOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("denied"))
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "backend-a", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.GetSecret(context.Background(), "path")
	assert.Error(t, err)
}

func TestBackendA_MutualTLSWithoutCertProviderIsRejected(t *testing.T) {
	_, err := New(Config{Provider: "backend-a", MutualTLS: true}, nil)
	assert.Error(t, err)
}

func TestBackendB_GetSecret_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key456", r.Header.Get("X-API-Key"))
		w.Write([]byte(`{"secret":{"value":"other-secret"}}`))
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "backend-b", BaseURL: srv.URL, APIKey: "key456"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "backend-b", client.ProviderName())

	value, err := client.GetSecret(context.Background(), "path")
	require.NoError(t, err)
	assert.Equal(t, "other-secret", value)
}
