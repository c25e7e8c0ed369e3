package config

import "testing"

func TestRankingValidate(t *testing.T) {
	good := RankingConfig{
		SocialProofDivisor: 1000,
		CapDiscussion:      5, CapVideo: 6, CapArticle: 6, CapBackground: 4,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	zeroCap := good
	zeroCap.CapVideo = 0
	if err := zeroCap.Validate(); err == nil {
		t.Fatal("zero cap must be rejected")
	}

	zeroDivisor := good
	zeroDivisor.SocialProofDivisor = 0
	if err := zeroDivisor.Validate(); err == nil {
		t.Fatal("zero divisor must be rejected")
	}
}

func TestPostgresDSN(t *testing.T) {
	full := PostgresConfig{URL: "postgres://u:p@h:5/db"}
	if got := full.DSN(); got != "postgres://u:p@h:5/db" {
		t.Fatalf("explicit URL wins, got %q", got)
	}

	parts := PostgresConfig{Host: "db.local", User: "ce", Password: "s", DBName: "clipexplain"}
	want := "postgres://ce:s@db.local:5432/clipexplain?sslmode=disable"
	if got := parts.DSN(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := (PostgresConfig{}).DSN(); got != "" {
		t.Fatalf("unconfigured postgres yields empty DSN, got %q", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	if cfg.Ranking.CapDiscussion != 5 || cfg.Ranking.CapVideo != 6 || cfg.Ranking.CapArticle != 6 || cfg.Ranking.CapBackground != 4 {
		t.Fatalf("unexpected default caps: %+v", cfg.Ranking)
	}
	if cfg.General.MaxProcessingTime <= 0 {
		t.Fatal("processing budget must default to a positive duration")
	}
	if cfg.General.UserAgent == "" {
		t.Fatal("user agent must have a default")
	}
	if cfg.LLM.BaseURL == "" || cfg.LLM.Model == "" {
		t.Fatalf("llm defaults missing: %+v", cfg.LLM)
	}
}
