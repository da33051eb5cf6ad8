package certprovider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_FindByThumbprint(t *testing.T) {
	s := NewStatic()
	notAfter := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.AddByThumbprint("AB12", notAfter)

	cert, ok, err := s.FindByThumbprint("AB12", "", "")
	require.NoError(t, err)
	require.True(t, ok)
	yyyy, mm, dd := cert.NotAfter()
	assert.Equal(t, 2026, yyyy)
	assert.Equal(t, 6, mm)
	assert.Equal(t, 1, dd)
}

func TestStatic_FindByThumbprint_Missing(t *testing.T) {
	s := NewStatic()
	_, ok, err := s.FindByThumbprint("missing", "", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatic_FindBySubjectName_PicksLatestExpiry(t *testing.T) {
	s := NewStatic()
	s.AddBySubject("svc.example.com", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.AddBySubject("svc.example.com", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	s.AddBySubject("svc.example.com", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	cert, ok, err := s.FindBySubjectName("svc.example.com", "", "")
	require.NoError(t, err)
	require.True(t, ok)
	yyyy, _, _ := cert.NotAfter()
	assert.Equal(t, 2027, yyyy)
}

func TestStatic_GetRequiredByThumbprint_NotFoundIsError(t *testing.T) {
	s := NewStatic()
	_, err := s.GetRequiredByThumbprint("nope", "", "")
	assert.Error(t, err)
}

func TestStatic_GetRequiredBySubjectName_Found(t *testing.T) {
	s := NewStatic()
	s.AddBySubject("svc", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	cert, err := s.GetRequiredBySubjectName("svc", "", "")
	require.NoError(t, err)
	yyyy, mm, dd := cert.NotAfter()
	assert.Equal(t, 2026, yyyy)
	assert.Equal(t, 3, mm)
	assert.Equal(t, 1, dd)
}
