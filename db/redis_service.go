package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	collectionPrefix = "collection:" // Hash prefix: collection:{name} -> document id to JSON document
	changedSuffix    = ":changed"    // Channel: collection:{name}:changed -> published on every write
)

// Document is a stored record of a remote collection
type Document struct {
	ID   string
	Data []byte
}

// Query selects a collection and an optional ordering
type Query struct {
	Collection string
	OrderBy    string // JSON field of the documents; values compare as strings
	Desc       bool
}

// Snapshot is the full listing of a remote collection at one point in time
type Snapshot struct {
	Collection string
	Docs       []Document
}

func (s Snapshot) Empty() bool {
	return len(s.Docs) == 0
}

// RedisService is the remote live store. Every collection is a Redis hash of
// JSON documents, and every write publishes a change notification so that
// subscribers can reload the collection.
type RedisService struct {
	Client *redis.Client
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{
		Client: client,
	}
}

// Helper to generate the collection hash key
func getCollectionKey(collection string) string {
	return collectionPrefix + collection
}

// Helper to generate the change notification channel
func getChangedChannel(collection string) string {
	return collectionPrefix + collection + changedSuffix
}

// --- Write path ---

// Add stores doc under a freshly generated document id and returns that id
func (s *RedisService) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := s.Upsert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Upsert creates or replaces the document with the given id
func (s *RedisService) Upsert(ctx context.Context, collection, id string, doc any) error {
	return s.UpsertAll(ctx, collection, map[string]any{id: doc})
}

// UpsertAll creates or replaces every document of docs in one transaction and
// publishes a single change notification. Documents absent from docs are kept.
func (s *RedisService) UpsertAll(ctx context.Context, collection string, docs map[string]any) error {
	if collection == "" {
		return errors.New("collection name cannot be empty")
	}
	if len(docs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(docs)*2)
	for id, doc := range docs {
		if id == "" {
			return fmt.Errorf("document id cannot be empty in collection %s", collection)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
		}
		values = append(values, id, string(data))
	}

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, getCollectionKey(collection), values...)
	pipe.Publish(ctx, getChangedChannel(collection), collection)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error writing %d document(s) to %s: %v", len(docs), collection, err)
		return fmt.Errorf("failed to write documents to Redis: %w", err)
	}
	return nil
}

// Delete removes the document with the given id. Deleting a missing document
// still notifies subscribers.
func (s *RedisService) Delete(ctx context.Context, collection, id string) error {
	pipe := s.Client.TxPipeline()
	pipe.HDel(ctx, getCollectionKey(collection), id)
	pipe.Publish(ctx, getChangedChannel(collection), collection)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error deleting document %s from %s: %v", id, collection, err)
		return fmt.Errorf("failed to delete document from Redis: %w", err)
	}
	return nil
}

// --- Read path ---

// Documents lists the documents of a collection in query order. Without an
// OrderBy field documents are ordered by id.
func (s *RedisService) Documents(ctx context.Context, q Query) ([]Document, error) {
	data, err := s.Client.HGetAll(ctx, getCollectionKey(q.Collection)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Document{}, nil
		}
		log.Printf("Error listing collection %s: %v", q.Collection, err)
		return nil, fmt.Errorf("failed to list collection %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(data))
	for id, raw := range data {
		docs = append(docs, Document{ID: id, Data: []byte(raw)})
	}
	sortDocuments(docs, q)
	return docs, nil
}

func sortDocuments(docs []Document, q Query) {
	keys := make(map[string]string, len(docs))
	if q.OrderBy != "" {
		for _, d := range docs {
			keys[d.ID] = fieldValue(d.Data, q.OrderBy)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if ka, kb := keys[a.ID], keys[b.ID]; ka != kb {
			if q.Desc {
				return ka > kb
			}
			return ka < kb
		}
		return a.ID < b.ID
	})
}

// fieldValue extracts a top-level field of a JSON object as a string.
// String values are unquoted, anything else is returned as raw JSON.
func fieldValue(data []byte, field string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	raw, ok := fields[field]
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

// --- Subscriptions ---

// Subscribe delivers a snapshot of the queried collection to fn right away and
// again after every change notification. Snapshots are delivered one at a time
// from a single goroutine, in the order the notifications arrive. The returned
// function stops the subscription and waits for any in-flight delivery; it is
// safe to call more than once.
func (s *RedisService) Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (func(), error) {
	pubsub := s.Client.Subscribe(ctx, getChangedChannel(q.Collection))
	// Wait for the confirmation so no write between here and the initial
	// snapshot goes unnoticed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Error subscribing to %s: %v", q.Collection, err)
		return nil, fmt.Errorf("failed to subscribe to collection %s: %w", q.Collection, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := pubsub.Channel()
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.deliver(subCtx, q, fn)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.deliver(subCtx, q, fn)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				log.Printf("Error closing subscription to %s: %v", q.Collection, err)
			}
			<-done
		})
	}, nil
}

func (s *RedisService) deliver(ctx context.Context, q Query, fn func(Snapshot)) {
	docs, err := s.Documents(ctx, q)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Skipping snapshot of %s: %v", q.Collection, err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	fn(Snapshot{Collection: q.Collection, Docs: docs})
}

// --- Utility ---

// InitializeRedisClient creates a Redis client and checks the connection.
// An unreachable server is only logged: the client reconnects on demand and
// writes made meanwhile fail back to their callers.
func InitializeRedisClient(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: could not reach Redis at %s (DB %d): %v", addr, db, err)
		return rdb
	}

	log.Printf("Successfully connected to Redis at %s (DB %d)", addr, db)
	return rdb
}
