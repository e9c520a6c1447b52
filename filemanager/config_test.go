package filemanager

import (
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	c := &Config{Roles: map[string][]string{"viewer": {"list", "*.get"}, "admin": {"*"}}}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"bad mode", Config{Delimiter: "/", AuthorizationMode: "sometimes"}, []string{"sometimes"}},
		{"unknown action", Config{Delimiter: "/", AuthorizationMode: "deny-by-default", Roles: map[string][]string{"viewer": {"lsit"}}},
			[]string{`roles.viewer: "lsit" matches no action`}},
		{"every problem reported", Config{
			AuthorizationMode:  "sometimes",
			LockTTLSeconds:     -1,
			LockFolderMoves:    true,
			PreviewCacheMargin: -1,
		}, []string{
			"delimiter must not be empty",
			"sometimes",
			"lock_ttl_seconds must be positive",
			"lock_prefix is required",
			"preview_cache_margin must not be negative",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			for _, want := range tt.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}
