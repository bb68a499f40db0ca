// Seed script that loads sample long-term memories into the configured
// memory backend (chromem or pgvector).
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Harshitk-cp/companion/internal/api"
	"github.com/Harshitk-cp/companion/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	svcs, err := api.BuildServices(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	defer func() { _ = svcs.Close() }()

	fmt.Printf("Seeding %s memory backend\n", cfg.MemoryBackend)

	memories := []struct {
		text   string
		source string
	}{
		{"User's name is Rex", "onboarding"},
		{"User is a software engineer working on backend systems", "profile"},
		{"User lives in Valencia, Spain", "profile"},
		{"User has a dog named Biscuit", "conversation-001"},
		{"User prefers short, direct answers", "conversation-002"},
		{"User is learning to play the piano", "conversation-003"},
		{"User is allergic to peanuts", "conversation-004"},
	}

	for _, m := range memories {
		mem, err := svcs.Memories.Upsert(ctx, m.text, map[string]string{"source": m.source})
		if err != nil {
			log.Printf("Warning: Failed to store memory: %v", err)
			continue
		}
		fmt.Printf("Stored memory %s: %s\n", mem.ID, truncate(mem.Text, 50))
	}

	count, err := svcs.Memories.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count memories: %v", err)
	}

	fmt.Printf("\n=== Seed Complete (%d memories) ===\n", count)
	fmt.Println("\nTo search memories:")
	fmt.Println("curl 'http://localhost:8080/v1/memories/search?q=pets&top_k=3'")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
