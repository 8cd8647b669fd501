// Package repo contains the remote trip document stores.
// A remote document is addressed by its join code and is always read and
// written whole; there is no field-level update and no concurrency token.
// Each backend has its own file. No sync policy lives here, only storage,
// change notification and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, pgx.Tx
// and pgxmock. Accepting this interface instead of *pgxpool.Pool lets tests
// pass a transaction that is rolled back after each test, or a mock.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Listener hands out dedicated connections for LISTEN.
// *pgxpool.Pool satisfies it.
type Listener interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// Subscription is an active change feed for one document.
type Subscription interface {
	// Unsubscribe stops delivery and waits for the feed goroutine to exit.
	// onChange is never called after Unsubscribe returns.
	Unsubscribe() error
}

// PGTripStore keeps trip documents in the trip_documents table as JSONB.
// A trigger on that table (see migrations) issues NOTIFY on the channel
// returned by channelName whenever a row is inserted or updated.
type PGTripStore struct {
	db       db
	listener Listener
	log      *slog.Logger
}

// NewPGTripStore constructs a PGTripStore. listener may be nil, in which
// case Subscribe fails; that is enough for tests that only exercise SQL.
func NewPGTripStore(db db, listener Listener, log *slog.Logger) *PGTripStore {
	if log == nil {
		log = slog.Default()
	}
	return &PGTripStore{db: db, listener: listener, log: log}
}

// CodeExists reports whether a document is stored under code.
func (s *PGTripStore) CodeExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM trip_documents WHERE code = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, q, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.PGTripStore.CodeExists: %w", err)
	}
	return exists, nil
}

// Create stores doc under a fresh code.
// Returns domain.ErrCodeTaken if a document already exists under code; the
// insert never overwrites, so at most one document exists per code even
// when two creators race.
func (s *PGTripStore) Create(ctx context.Context, code string, doc domain.TripDocument) error {
	const q = `
		INSERT INTO trip_documents (code, document)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING`

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repo.PGTripStore.Create: encode: %w", err)
	}

	tag, err := s.db.Exec(ctx, q, code, data)
	if err != nil {
		return fmt.Errorf("repo.PGTripStore.Create: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PGTripStore.Create: %w", domain.ErrCodeTaken)
	}
	return nil
}

// Fetch reads the document stored under code once.
// Returns domain.ErrNotFound if there is none.
func (s *PGTripStore) Fetch(ctx context.Context, code string) (domain.TripDocument, error) {
	const q = `SELECT document FROM trip_documents WHERE code = $1`

	var raw []byte
	err := s.db.QueryRow(ctx, q, code).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripDocument{}, fmt.Errorf("repo.PGTripStore.Fetch: %w", domain.ErrNotFound)
		}
		return domain.TripDocument{}, fmt.Errorf("repo.PGTripStore.Fetch: %w", err)
	}

	var doc domain.TripDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.TripDocument{}, fmt.Errorf("repo.PGTripStore.Fetch: decode: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// Replace overwrites the document stored under code. Last writer wins.
func (s *PGTripStore) Replace(ctx context.Context, code string, doc domain.TripDocument) error {
	const q = `
		INSERT INTO trip_documents (code, document)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE
		SET document   = EXCLUDED.document,
		    updated_at = now()`

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repo.PGTripStore.Replace: encode: %w", err)
	}

	if _, err := s.db.Exec(ctx, q, code, data); err != nil {
		return fmt.Errorf("repo.PGTripStore.Replace: %w", err)
	}
	return nil
}

// Subscribe delivers the current document to onChange, then every document
// written afterwards, including writes made by this process.
// A code with no document yet produces no initial call.
// The feed lives until Unsubscribe is called or ctx is cancelled.
func (s *PGTripStore) Subscribe(ctx context.Context, code string, onChange func(domain.TripDocument)) (Subscription, error) {
	if s.listener == nil {
		return nil, errors.New("repo.PGTripStore.Subscribe: no listener configured")
	}

	conn, err := s.listener.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.PGTripStore.Subscribe: acquire: %w", err)
	}
	listen := "LISTEN " + pgx.Identifier{channelName(code)}.Sanitize()
	if _, err := conn.Exec(ctx, listen); err != nil {
		conn.Release()
		return nil, fmt.Errorf("repo.PGTripStore.Subscribe: listen: %w", err)
	}

	// LISTEN is in place before the initial read, so no write can slip
	// between the two unseen.
	if err := s.deliver(ctx, code, onChange); err != nil {
		s.releaseListener(conn)
		return nil, fmt.Errorf("repo.PGTripStore.Subscribe: %w", err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	sub := &pgSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer s.releaseListener(conn)
		for {
			if _, err := conn.Conn().WaitForNotification(feedCtx); err != nil {
				if feedCtx.Err() == nil {
					s.log.WarnContext(ctx, "trip document feed stopped", "code", code, "error", err)
				}
				return
			}
			if err := s.deliver(feedCtx, code, onChange); err != nil && feedCtx.Err() == nil {
				s.log.WarnContext(ctx, "trip document refresh failed", "code", code, "error", err)
			}
		}
	}()

	return sub, nil
}

// deliver fetches the current document and hands it to onChange.
// A missing document is not an error.
func (s *PGTripStore) deliver(ctx context.Context, code string, onChange func(domain.TripDocument)) error {
	doc, err := s.Fetch(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	onChange(doc)
	return nil
}

// releaseListener drops every LISTEN on conn and returns it to the pool.
// A connection left broken by a cancelled wait is closed by the pool on release.
func (s *PGTripStore) releaseListener(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !conn.Conn().IsClosed() {
		_, _ = conn.Exec(ctx, "UNLISTEN *")
	}
	conn.Release()
}

// channelName is the NOTIFY channel for code. It must match the trigger in
// migrations/00001_create_trip_documents.sql.
func channelName(code string) string {
	return "trip_" + strings.ToLower(code)
}

type pgSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *pgSubscription) Unsubscribe() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}
