package config

import "testing"

func TestEnvList(t *testing.T) {
	t.Setenv("TEST_ORIGINS", " http://a.example , ,http://b.example")
	got := envList("TEST_ORIGINS", "http://fallback")
	if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestEnvListFallback(t *testing.T) {
	got := envList("TEST_ORIGINS_UNSET", "http://x,http://y")
	if len(got) != 2 {
		t.Fatalf("unexpected fallback list: %v", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_TTL", "48")
	if got := envInt("TEST_TTL", 24); got != 48 {
		t.Fatalf("envInt = %d, want 48", got)
	}
	t.Setenv("TEST_TTL", "not-a-number")
	if got := envInt("TEST_TTL", 24); got != 24 {
		t.Fatalf("envInt fallback = %d, want 24", got)
	}
}

func TestLoadHTTPAddrFromPort(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9999")
	cfg := Load()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("HTTPAddr = %s, want :9999", cfg.HTTPAddr)
	}
}
