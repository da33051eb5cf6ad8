// Package certprovider implements the CertificateProvider abstraction from
// spec §6.4. Certificate-store lookup is explicitly out of scope (spec §1:
// "Certificate-store lookup (abstracted as a CertificateProvider)") — this
// package exists only to satisfy secretstore's collaborator interface with
// a host-OS-agnostic stub; a real deployment supplies its own
// platform-specific implementation (Windows cert store, a PKCS#11 module,
// a mounted PEM directory, etc).
package certprovider

import (
	"fmt"
	"time"

	"github.com/r3e-network/datalake-ingestion/internal/ingesterr"
	"github.com/r3e-network/datalake-ingestion/internal/secretstore"
)

// cert is the package's minimal Certificate implementation.
type cert struct {
	notAfter time.Time
}

func (c cert) NotAfter() (yyyy, mm, dd int) {
	return c.notAfter.Year(), int(c.notAfter.Month()), c.notAfter.Day()
}

// Static is a CertificateProvider backed by an in-memory set of
// pre-loaded certificates, keyed by thumbprint and by subject name.
type Static struct {
	byThumbprint map[string]cert
	bySubject    map[string][]cert // candidates; latest expiry wins
}

// NewStatic builds an empty Static provider; entries are added with
// AddByThumbprint/AddBySubject by the host's bootstrap code.
func NewStatic() *Static {
	return &Static{
		byThumbprint: map[string]cert{},
		bySubject:    map[string][]cert{},
	}
}

// AddByThumbprint registers a certificate under its thumbprint.
func (s *Static) AddByThumbprint(thumbprint string, notAfter time.Time) {
	s.byThumbprint[thumbprint] = cert{notAfter: notAfter}
}

// AddBySubject registers a certificate candidate under a subject name.
func (s *Static) AddBySubject(name string, notAfter time.Time) {
	s.bySubject[name] = append(s.bySubject[name], cert{notAfter: notAfter})
}

func (s *Static) FindByThumbprint(thumbprint, storeName, storeLocation string) (secretstore.Certificate, bool, error) {
	c, ok := s.byThumbprint[thumbprint]
	if !ok {
		return nil, false, nil
	}
	return c, true, nil
}

func (s *Static) FindBySubjectName(name, storeName, storeLocation string) (secretstore.Certificate, bool, error) {
	candidates, ok := s.bySubject[name]
	if !ok || len(candidates) == 0 {
		return nil, false, nil
	}
	latest := candidates[0]
	for _, c := range candidates[1:] {
		if c.notAfter.After(latest.notAfter) {
			latest = c
		}
	}
	return latest, true, nil
}

func (s *Static) GetRequiredByThumbprint(thumbprint, storeName, storeLocation string) (secretstore.Certificate, error) {
	c, ok, err := s.FindByThumbprint(thumbprint, storeName, storeLocation)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("certprovider: no certificate with thumbprint %q: %w", thumbprint, ingesterr.ErrNotFound)
	}
	return c, nil
}

func (s *Static) GetRequiredBySubjectName(name, storeName, storeLocation string) (secretstore.Certificate, error) {
	c, ok, err := s.FindBySubjectName(name, storeName, storeLocation)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("certprovider: no certificate with subject %q: %w", name, ingesterr.ErrNotFound)
	}
	return c, nil
}
