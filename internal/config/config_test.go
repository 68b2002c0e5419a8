package config

import "testing"

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("RETRIEVAL_RRF_K", "")
	t.Setenv("RETRIEVAL_BREADTH", "")
	t.Setenv("BM25_K1", "")
	t.Setenv("BM25_B", "")

	cfg := Load()
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalRRFK != 60 {
		t.Fatalf("expected default rrf constant 60, got %d", cfg.RetrievalRRFK)
	}
	if cfg.RetrievalBreadth != 3 {
		t.Fatalf("expected default breadth multiplier 3, got %d", cfg.RetrievalBreadth)
	}
	if cfg.BM25K1 != 1.2 {
		t.Fatalf("expected default bm25 k1 1.2, got %v", cfg.BM25K1)
	}
	if cfg.BM25B != 0.75 {
		t.Fatalf("expected default bm25 b 0.75, got %v", cfg.BM25B)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("RETRIEVAL_RRF_K", "75")
	t.Setenv("CHUNK_SIZE", "1200")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("NATS_INGEST_SUBJECT", "docs.in")

	cfg := Load()
	if cfg.RetrievalTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RetrievalTopK)
	}
	if cfg.RetrievalRRFK != 75 {
		t.Fatalf("expected rrf constant 75, got %d", cfg.RetrievalRRFK)
	}
	if cfg.ChunkSize != 1200 {
		t.Fatalf("expected chunk size 1200, got %d", cfg.ChunkSize)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSIngestSubject != "docs.in" {
		t.Fatalf("expected ingest subject override, got %q", cfg.NATSIngestSubject)
	}
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")
	t.Setenv("BM25_K1", "nope")

	cfg := Load()
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.BM25K1 != 1.2 {
		t.Fatalf("expected fallback bm25 k1 1.2, got %v", cfg.BM25K1)
	}
}
