package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_SimilarityAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Search.MinSimilarity = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_similarity above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" {
		t.Errorf("driver default = %q, want redis", cfg.Database.Driver)
	}
	if cfg.Search.TopK != 10 {
		t.Errorf("top_k default = %d, want 10", cfg.Search.TopK)
	}
	if cfg.Search.MinSimilarity != 0.80 {
		t.Errorf("min_similarity default = %g, want 0.80", cfg.Search.MinSimilarity)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("model default = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions default = %d, want 1536", cfg.Embedding.Dimensions)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Search: SearchConfig{TopK: 25, MinSimilarity: 0.5},
	}
	cfg.ApplyDefaults()

	if cfg.Search.TopK != 25 {
		t.Errorf("top_k = %d, want 25", cfg.Search.TopK)
	}
	if cfg.Search.MinSimilarity != 0.5 {
		t.Errorf("min_similarity = %g, want 0.5", cfg.Search.MinSimilarity)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POIDEX_TEST_VAR", "redis-host:6380")

	in := []byte("addr: ${POIDEX_TEST_VAR}\nfallback: ${POIDEX_UNSET_VAR:-default-val}\n")
	out := string(expandEnvVars(in))

	want := "addr: redis-host:6380\nfallback: default-val\n"
	if out != want {
		t.Errorf("expanded:\ngot:  %q\nwant: %q", out, want)
	}
}
