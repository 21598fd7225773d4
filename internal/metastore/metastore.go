package metastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crawlchat/crawlchat/internal/model"
)

// Store persists the structured entities the crawl/answer pipeline moves
// between stages: tasks, crawled documents, processed documents and chat
// sessions. A single Mongo database with one collection per entity mirrors
// the teacher's single-collection MongoStorage, generalized from an
// untyped bag of scraped fields to fixed entity schemas.
type Store struct {
	client *mongo.Client
	tasks  *mongo.Collection
	docs   *mongo.Collection
	procs  *mongo.Collection
	sess   *mongo.Collection
	logger *slog.Logger
}

func New(uri, database string, logger *slog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client: client,
		tasks:  db.Collection("crawl_tasks"),
		docs:   db.Collection("crawled_documents"),
		procs:  db.Collection("processed_documents"),
		sess:   db.Collection("sessions"),
		logger: logger.With("component", "meta_store"),
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) SaveTask(ctx context.Context, task *model.CrawlTask) error {
	_, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID}, taskDoc(task), options.Replace().SetUpsert(true))
	return err
}

func (s *Store) GetTask(ctx context.Context, id string) (*model.CrawlTask, error) {
	var doc bson.M
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("task %s: %w", id, mongo.ErrNoDocuments)
		}
		return nil, err
	}
	return taskFromDoc(doc), nil
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks(ctx context.Context) ([]*model.CrawlTask, error) {
	cur, err := s.tasks.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.CrawlTask
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, taskFromDoc(doc))
	}
	return out, cur.Err()
}

// DeleteTask removes only the task's record. Its crawled and processed
// document records, their object-store blobs and its vector collection are
// not deleted, here or by the API's task delete handler.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) SaveDocument(ctx context.Context, doc *model.CrawledDocument) error {
	_, err := s.docs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, documentDoc(doc), options.Replace().SetUpsert(true))
	return err
}

// GetDocument fetches a single crawled document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.CrawledDocument, error) {
	var doc bson.M
	if err := s.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("document %s: %w", id, mongo.ErrNoDocuments)
		}
		return nil, err
	}
	return documentFromDoc(doc), nil
}

func (s *Store) ListDocumentsByTask(ctx context.Context, taskID string) ([]*model.CrawledDocument, error) {
	cur, err := s.docs.Find(ctx, bson.M{"task_id": taskID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.CrawledDocument
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, documentFromDoc(doc))
	}
	return out, cur.Err()
}

func (s *Store) SaveProcessedDocument(ctx context.Context, proc *model.ProcessedDocument) error {
	_, err := s.procs.ReplaceOne(ctx, bson.M{"_id": proc.ID}, processedDoc(proc), options.Replace().SetUpsert(true))
	return err
}

// FindProcessedDocumentByHash looks up the non-duplicate ProcessedDocument
// for a session with the given content hash, used to detect that a newly
// extracted document's text was already indexed under a different URL.
func (s *Store) FindProcessedDocumentByHash(ctx context.Context, sessionID, contentHash string) (*model.ProcessedDocument, error) {
	var doc bson.M
	err := s.procs.FindOne(ctx, bson.M{
		"session_id":   sessionID,
		"content_hash": contentHash,
		"is_duplicate": false,
	}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return processedDocFromDoc(doc), nil
}

// CountDocumentsByTask and CountProcessedDocumentsByTask let the retriever
// tell an empty corpus apart from one that is still being indexed: if the
// counts differ, some crawled documents haven't finished extraction yet.
func (s *Store) CountDocumentsByTask(ctx context.Context, taskID string) (int64, error) {
	return s.docs.CountDocuments(ctx, bson.M{"task_id": taskID})
}

func (s *Store) CountProcessedDocumentsByTask(ctx context.Context, taskID string) (int64, error) {
	return s.procs.CountDocuments(ctx, bson.M{"task_id": taskID})
}

func (s *Store) SaveSession(ctx context.Context, sess *model.Session) error {
	_, err := s.sess.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sessionDoc(sess), options.Replace().SetUpsert(true))
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var doc bson.M
	if err := s.sess.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return sessionFromDoc(doc), nil
}
