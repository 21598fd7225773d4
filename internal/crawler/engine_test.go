package crawler

import (
	"testing"
	"time"

	"github.com/crawlchat/crawlchat/internal/model"
)

func TestFrontierPushPop(t *testing.T) {
	f := NewFrontier()

	r1, _ := model.NewFetchRequest("https://example.com/page1", "task-1")
	r1.Priority = 5
	r2, _ := model.NewFetchRequest("https://example.com/page2", "task-1")
	r2.Priority = 10

	f.Push(r1)
	f.Push(r2)

	if f.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", f.Len())
	}

	got := f.TryPop()
	if got == nil {
		t.Fatal("expected non-nil, got nil")
	}
	if got.Priority != 5 {
		t.Errorf("expected min-heap to pop priority 5 first, got %d", got.Priority)
	}

	got2 := f.TryPop()
	if got2 == nil || got2.Priority != 10 {
		t.Fatalf("expected second pop priority 10, got %+v", got2)
	}

	if f.Len() != 0 {
		t.Errorf("expected empty frontier, got %d", f.Len())
	}
}

func TestFrontierTryPopEmpty(t *testing.T) {
	f := NewFrontier()
	if got := f.TryPop(); got != nil {
		t.Errorf("expected nil from empty frontier, got %v", got)
	}
}

func TestFrontierClose(t *testing.T) {
	f := NewFrontier()
	f.Close()

	if !f.IsClosed() {
		t.Error("expected frontier to be closed")
	}
}

func TestFrontierMultipleItems(t *testing.T) {
	f := NewFrontier()

	for i := 0; i < 100; i++ {
		r, _ := model.NewFetchRequest("https://example.com/page", "task-1")
		r.Priority = i
		f.Push(r)
	}

	if f.Len() != 100 {
		t.Fatalf("expected 100 items, got %d", f.Len())
	}

	prev := -1
	for i := 0; i < 100; i++ {
		got := f.TryPop()
		if got == nil {
			t.Fatalf("unexpected nil at position %d", i)
		}
		if got.Priority < prev {
			t.Errorf("expected ascending priority order, got %d after %d", got.Priority, prev)
		}
		prev = got.Priority
	}
}

func TestStatsSnapshot(t *testing.T) {
	s := &Stats{StartTime: time.Now()}
	s.RequestsSent.Add(42)
	s.ResponsesOK.Add(40)
	s.RequestsFailed.Add(2)
	s.BytesDownloaded.Add(1024 * 1024)

	snap := s.Snapshot()
	if snap["requests_sent"].(int64) != 42 {
		t.Errorf("expected 42 requests_sent, got %v", snap["requests_sent"])
	}
	if snap["bytes_downloaded"].(int64) != 1048576 {
		t.Errorf("expected 1048576 bytes, got %v", snap["bytes_downloaded"])
	}
}

func BenchmarkFrontierPushPop(b *testing.B) {
	f := NewFrontier()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req, _ := model.NewFetchRequest("https://example.com/page", "task-1")
		req.Priority = i % 10
		f.Push(req)
	}
	for i := 0; i < b.N; i++ {
		f.TryPop()
	}
}
