package vectorindex

import (
	"fmt"
	"testing"
)

func TestRouterStableForSameKey(t *testing.T) {
	r := NewRouter([]string{"node-a", "node-b", "node-c"})

	first := r.NodeFor("task-123")
	for i := 0; i < 10; i++ {
		if got := r.NodeFor("task-123"); got != first {
			t.Fatalf("expected stable node for same key, got %q then %q", first, got)
		}
	}
}

func TestRouterDistributesKeys(t *testing.T) {
	r := NewRouter([]string{"node-a", "node-b", "node-c"})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[r.NodeFor(fmt.Sprintf("task-%d", i))] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected keys to spread across multiple nodes, got %v", seen)
	}
}

func TestChunkID(t *testing.T) {
	if got := chunkID("doc-1", 3); got != "doc-1_3" {
		t.Errorf("got %q", got)
	}
}
