package mq

import (
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"

	"github.com/crawlchat/crawlchat/internal/model"
)

func startTestServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()

	srv := test.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestPublishAndSubscribeTasks(t *testing.T) {
	srv := startTestServer(t)

	client, err := Connect(srv.ClientURL(), "TEST_TASKS")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	var mu sync.Mutex
	var received []*model.CrawlTask

	stop, err := client.SubscribeTasks("test-consumer", func(task *model.CrawlTask) error {
		mu.Lock()
		received = append(received, task)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	task := &model.CrawlTask{ID: "task-1", Seeds: []string{"https://example.com"}, MaxDepth: 2}
	if err := client.PublishTask(task); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 task received, got %d", len(received))
	}
	if received[0].ID != "task-1" {
		t.Errorf("expected task-1, got %s", received[0].ID)
	}
}
