package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/crawlchat/crawlchat/internal/model"
)

// subjectCrawlTasks is the JetStream subject carrying queued crawl tasks;
// subjectDocuments carries documents ready for text extraction.
const (
	subjectCrawlTasks = "crawlchat.tasks"
	subjectDocuments  = "crawlchat.documents"
)

// Client owns one JetStream-backed stream used for both task dispatch and
// document hand-off between the crawl workers and the extraction/indexing
// workers, mirroring the teacher's single-broker-connection idiom.
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

func Connect(url, streamName string) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name("crawlchat"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectCrawlTasks, subjectDocuments},
		Storage:  nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		conn.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &Client{conn: conn, js: js}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// PublishTask enqueues a crawl task for a worker to pick up.
func (c *Client) PublishTask(task *model.CrawlTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = c.js.Publish(subjectCrawlTasks, data)
	return err
}

// SubscribeTasks registers a durable pull consumer that invokes handler for
// each queued task, acking only once handler returns nil so a crashed
// worker's in-flight task is redelivered to another worker.
func (c *Client) SubscribeTasks(durable string, handler func(*model.CrawlTask) error) (func() error, error) {
	sub, err := c.js.PullSubscribe(subjectCrawlTasks, durable, nats.ManualAck(), nats.AckWait(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("pull subscribe: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}

			msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
			if err != nil {
				continue
			}
			for _, msg := range msgs {
				var task model.CrawlTask
				if err := json.Unmarshal(msg.Data, &task); err != nil {
					msg.Term()
					continue
				}
				if err := handler(&task); err != nil {
					msg.Nak()
					continue
				}
				msg.Ack()
			}
		}
	}()

	return func() error {
		close(stop)
		return sub.Unsubscribe()
	}, nil
}

// PublishDocument hands a stored document off to the extraction/indexing
// pipeline once the crawler has written it to the object store.
func (c *Client) PublishDocument(doc *model.CrawledDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = c.js.Publish(subjectDocuments, data)
	return err
}

func (c *Client) SubscribeDocuments(durable string, handler func(*model.CrawledDocument) error) (func() error, error) {
	sub, err := c.js.PullSubscribe(subjectDocuments, durable, nats.ManualAck(), nats.AckWait(10*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("pull subscribe: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}

			msgs, err := sub.Fetch(4, nats.MaxWait(2*time.Second))
			if err != nil {
				continue
			}
			for _, msg := range msgs {
				var doc model.CrawledDocument
				if err := json.Unmarshal(msg.Data, &doc); err != nil {
					msg.Term()
					continue
				}
				if err := handler(&doc); err != nil {
					msg.Nak()
					continue
				}
				msg.Ack()
			}
		}
	}()

	return func() error {
		close(stop)
		return sub.Unsubscribe()
	}, nil
}
