package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/s3fm/component"
	"github.com/kbukum/s3fm/storage"
	_ "github.com/kbukum/s3fm/storage/memory"
)

func TestComponent_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := storage.NewComponent(storage.Config{Enabled: true, Provider: storage.ProviderMemory, Bucket: "media"}, nil, nil)

	if c.Store() != nil {
		t.Error("Store() should be nil before Start")
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %q", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Store() == nil {
		t.Fatal("Store() should be set after Start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	if d := c.Describe(); !strings.Contains(d.Details, "bucket=media") {
		t.Errorf("unexpected description %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponent_Disabled(t *testing.T) {
	c := storage.NewComponent(storage.Config{Provider: storage.ProviderMemory}, nil, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Store() != nil {
		t.Error("disabled component should not create a store")
	}
	if h := c.Health(context.Background()); h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"s3 with bucket", storage.Config{Provider: storage.ProviderS3, Bucket: "b"}, false},
		{"s3 without bucket", storage.Config{Provider: storage.ProviderS3}, true},
		{"memory", storage.Config{Provider: storage.ProviderMemory}, false},
		{"unknown", storage.Config{Provider: "ftp"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	var cfg storage.Config
	cfg.ApplyDefaults()
	if cfg.Provider != storage.ProviderS3 {
		t.Errorf("expected default provider s3, got %q", cfg.Provider)
	}
}

func TestNew_UnregisteredProvider(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Provider: storage.ProviderS3, Bucket: "b"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("expected not registered error, got %v", err)
	}
}
