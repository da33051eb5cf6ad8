package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := New(Config{Level: "not-a-level", Format: "json", Output: "stdout"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestNew_TextFormatterSelected(t *testing.T) {
	l := New(Config{Level: "debug", Format: "text", Output: "stdout"})
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestNew_JSONFormatterIsDefault(t *testing.T) {
	l := New(Config{Level: "info", Format: "", Output: "stdout"})
	_, ok := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestWithField_CarriesContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: "stdout"})
	l.SetOutput(&buf)

	l.WithField("dataset_id", "trades").Info("extraction complete")
	assert.Contains(t, buf.String(), "trades")
	assert.Contains(t, buf.String(), "dataset_id")
}

func TestNewDefault_SetsComponentField(t *testing.T) {
	l := NewDefault("scheduler")
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Info("started")
	assert.Contains(t, buf.String(), "scheduler")
}
