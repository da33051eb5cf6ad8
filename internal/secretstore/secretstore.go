// Package secretstore implements the C1 Secret Store Client: a small HTTP
// client over one of two vault backends, grounded on the teacher's
// pkg/supabase.Client request pattern (30s-timeout http.Client, bearer/
// api-key header, status>=400 wrapped as a transport error).
package secretstore

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// CertificateProvider abstracts host certificate-store lookup (spec §6.4).
// The concrete implementation lives outside this module's scope.
type CertificateProvider interface {
	FindByThumbprint(thumbprint, storeName, storeLocation string) (Certificate, bool, error)
	FindBySubjectName(name, storeName, storeLocation string) (Certificate, bool, error)
	GetRequiredByThumbprint(thumbprint, storeName, storeLocation string) (Certificate, error)
	GetRequiredBySubjectName(name, storeName, storeLocation string) (Certificate, error)
}

// Certificate is an opaque handle a CertificateProvider returns. It exposes
// only the expiry date and carries no key material, so it cannot be
// presented as a TLS client certificate.
type Certificate interface {
	NotAfter() (yyyy, mm, dd int)
}

// Client is the C1 contract.
type Client interface {
	GetSecret(ctx context.Context, path string) (string, error)
	ProviderName() string
}

// Config configures backend selection and per-backend credentials.
type Config struct {
	Provider      string // "backend-a" | "backend-b"
	BaseURL       string
	Token         string // backend-a bearer token
	APIKey        string // backend-b api key
	MutualTLS     bool
	Thumbprint    string
	SubjectName   string
	StoreName     string
	StoreLocation string
	RateLimitPerS float64
}

// New builds the configured Client, wiring a shared rate limiter (the
// original source's vault client notes thundering-herd incidents from many
// datasets resolving secrets at once).
func New(cfg Config, certs CertificateProvider) (Client, error) {
	limit := cfg.RateLimitPerS
	if limit <= 0 {
		limit = 10
	}
	limiter := rate.NewLimiter(rate.Limit(limit), 1)

	switch cfg.Provider {
	case "", "backend-a":
		return newBackendA(cfg, certs, limiter)
	case "backend-b":
		return newBackendB(cfg, limiter)
	default:
		return nil, unknownProviderError(cfg.Provider)
	}
}

// Failing returns a Client that fails every GetSecret call with cause.
// Vault misconfiguration (spec §6.6) is scoped to fail only the execution
// that needed a secret, not the whole daemon: callers that can't build a
// real Client at startup wire this in instead of exiting, so the failure
// surfaces as a per-execution Critical error the first time a dataset
// actually resolves a connection template.
func Failing(cause error) Client {
	return failingClient{cause: cause}
}

type failingClient struct {
	cause error
}

func (f failingClient) GetSecret(ctx context.Context, path string) (string, error) {
	return "", fmt.Errorf("secretstore: client unavailable: %w", f.cause)
}

func (f failingClient) ProviderName() string { return "unavailable" }
