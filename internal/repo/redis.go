package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// RedisTripStore keeps each trip document as a JSON string under
// trips:<code> and publishes every write on trips:<code>:changes with the
// full document as payload.
type RedisTripStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisTripStore constructs a RedisTripStore on an existing client.
func NewRedisTripStore(client *redis.Client, log *slog.Logger) *RedisTripStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisTripStore{client: client, log: log}
}

func redisKey(code string) string     { return "trips:" + code }
func redisChannel(code string) string { return "trips:" + code + ":changes" }

// CodeExists reports whether a document is stored under code.
func (s *RedisTripStore) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("repo.RedisTripStore.CodeExists: %w", err)
	}
	return n > 0, nil
}

// Create stores doc under a fresh code with SETNX.
// Returns domain.ErrCodeTaken if the key already exists.
func (s *RedisTripStore) Create(ctx context.Context, code string, doc domain.TripDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repo.RedisTripStore.Create: encode: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisKey(code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("repo.RedisTripStore.Create: %w", err)
	}
	if !ok {
		return fmt.Errorf("repo.RedisTripStore.Create: %w", domain.ErrCodeTaken)
	}
	if err := s.client.Publish(ctx, redisChannel(code), data).Err(); err != nil {
		return fmt.Errorf("repo.RedisTripStore.Create: publish: %w", err)
	}
	return nil
}

// Fetch reads the document stored under code once.
// Returns domain.ErrNotFound if there is none.
func (s *RedisTripStore) Fetch(ctx context.Context, code string) (domain.TripDocument, error) {
	raw, err := s.client.Get(ctx, redisKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TripDocument{}, fmt.Errorf("repo.RedisTripStore.Fetch: %w", domain.ErrNotFound)
		}
		return domain.TripDocument{}, fmt.Errorf("repo.RedisTripStore.Fetch: %w", err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return domain.TripDocument{}, fmt.Errorf("repo.RedisTripStore.Fetch: %w", err)
	}
	return doc, nil
}

// Replace overwrites the document and publishes it in one round trip.
func (s *RedisTripStore) Replace(ctx context.Context, code string, doc domain.TripDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repo.RedisTripStore.Replace: encode: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisKey(code), data, 0)
		p.Publish(ctx, redisChannel(code), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RedisTripStore.Replace: %w", err)
	}
	return nil
}

// Subscribe confirms a pub/sub subscription on the document's channel,
// delivers the current value, then every published document.
func (s *RedisTripStore) Subscribe(ctx context.Context, code string, onChange func(domain.TripDocument)) (Subscription, error) {
	ps := s.client.Subscribe(ctx, redisChannel(code))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("repo.RedisTripStore.Subscribe: %w", err)
	}

	current, err := s.Fetch(ctx, code)
	switch {
	case err == nil:
		onChange(current)
	case errors.Is(err, domain.ErrNotFound):
	default:
		_ = ps.Close()
		return nil, fmt.Errorf("repo.RedisTripStore.Subscribe: %w", err)
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			doc, err := decodeDocument([]byte(msg.Payload))
			if err != nil {
				s.log.WarnContext(ctx, "skipping undecodable trip document", "code", code, "error", err)
				continue
			}
			onChange(doc)
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
	err  error
}

// Unsubscribe closes the pub/sub connection, which closes its channel and
// ends the delivery goroutine.
func (s *redisSubscription) Unsubscribe() error {
	s.once.Do(func() { s.err = s.ps.Close() })
	<-s.done
	return s.err
}

func decodeDocument(raw []byte) (domain.TripDocument, error) {
	var doc domain.TripDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.TripDocument{}, fmt.Errorf("decode: %w", err)
	}
	doc.Normalize()
	return doc, nil
}
