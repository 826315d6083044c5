package logging

import (
	"testing"

	"github.com/scopecrawl/scopecrawl/internal/config"
)

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	logger, err := New(config.LoggingConfig{Development: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
}

func TestNewProduction(t *testing.T) {
	t.Parallel()

	logger, err := New(config.LoggingConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
}
