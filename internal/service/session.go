package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/metrics"
	"github.com/pkordes/trip-planner/backend/internal/repo"
)

// LocalStore is the on-device persistence the session depends on.
// *local.Store satisfies it.
type LocalStore interface {
	LoadDocument() (domain.TripDocument, error)
	SaveDocument(doc domain.TripDocument) error
	LoadJoinCode() (string, error)
	SaveJoinCode(code string) error
	ClearJoinCode() error
}

// RemoteStore is the shared document store. *repo.PGTripStore and
// *repo.RedisTripStore satisfy it.
type RemoteStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, code string, doc domain.TripDocument) error
	Fetch(ctx context.Context, code string) (domain.TripDocument, error)
	Replace(ctx context.Context, code string, doc domain.TripDocument) error
	Subscribe(ctx context.Context, code string, onChange func(domain.TripDocument)) (repo.Subscription, error)
}

// Renderer is told when the document or the session status changed.
// RequestRerender is called with the session lock held, so it must return
// promptly and must not call back into the session.
type Renderer interface {
	RequestRerender()
}

// ConnState is the session's position in the connection state machine.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// SyncStatus is the connection state as shown to the user.
type SyncStatus string

const (
	SyncOffline   SyncStatus = "offline"
	SyncSyncing   SyncStatus = "syncing"
	SyncConnected SyncStatus = "connected"
)

// Status is a point-in-time view of the session.
type Status struct {
	State ConnState  `json:"state"`
	Sync  SyncStatus `json:"sync"`
	Code  string     `json:"code,omitempty"`
}

// DefaultMaxCodeAttempts bounds join code generation in CreateTrip.
const DefaultMaxCodeAttempts = 10

// SessionOption customizes a TripSession.
type SessionOption func(*TripSession)

// WithRenderer sets the rerender target. The default discards requests.
func WithRenderer(r Renderer) SessionOption {
	return func(s *TripSession) {
		if r != nil {
			s.render = r
		}
	}
}

func WithLogger(log *slog.Logger) SessionOption {
	return func(s *TripSession) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.SyncMetrics) SessionOption {
	return func(s *TripSession) { s.metrics = m }
}

// WithRandom replaces crypto/rand as the join code source. Tests only.
func WithRandom(r io.Reader) SessionOption {
	return func(s *TripSession) {
		if r != nil {
			s.random = r
		}
	}
}

// WithPushTimeout bounds each background push. Zero means no bound.
func WithPushTimeout(d time.Duration) SessionOption {
	return func(s *TripSession) { s.pushTimeout = d }
}

func WithMaxCodeAttempts(n int) SessionOption {
	return func(s *TripSession) {
		if n > 0 {
			s.maxCodeAttempts = n
		}
	}
}

type nopRenderer struct{}

func (nopRenderer) RequestRerender() {}

// TripSession owns the single in-memory trip document and keeps it in step
// with local storage and, while connected, with one remote document.
//
// All state is guarded by mu. Local writes happen under mu so the persisted
// order matches the in-memory order; the remote store is never called with
// mu held, because Subscribe delivers its first document synchronously.
type TripSession struct {
	local           LocalStore
	remote          RemoteStore
	render          Renderer
	log             *slog.Logger
	metrics         *metrics.SyncMetrics
	random          io.Reader
	pushTimeout     time.Duration
	maxCodeAttempts int

	// baseCtx outlives requests; subscriptions and pushes run under it.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	doc        domain.TripDocument
	state      ConnState
	code       string
	sub        repo.Subscription
	gen        uint64
	inflight   int
	idle       chan struct{}
	pushFailed bool
	// dirty records edits made while connecting; they are pushed once connected.
	dirty bool
}

// NewTripSession builds a disconnected session holding an empty document.
// remote may be nil, in which case sharing is unavailable and the session
// works local-only. Call Start to load persisted state.
func NewTripSession(local LocalStore, remote RemoteStore, opts ...SessionOption) *TripSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &TripSession{
		local:           local,
		remote:          remote,
		render:          nopRenderer{},
		log:             slog.Default(),
		random:          rand.Reader,
		maxCodeAttempts: DefaultMaxCodeAttempts,
		baseCtx:         ctx,
		cancel:          cancel,
		doc:             domain.NewTripDocument(),
		state:           StateDisconnected,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start loads the persisted document, falling back to an empty one, and
// silently rejoins the remembered trip if there is one. A failed rejoin is
// logged and leaves the session disconnected with the code still remembered,
// so the next start tries again.
func (s *TripSession) Start(ctx context.Context) {
	doc, err := s.local.LoadDocument()
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "local trip document unreadable, starting empty", "error", err)
		}
		doc = domain.NewTripDocument()
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	if s.remote == nil {
		return
	}
	code, err := s.local.LoadJoinCode()
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "remembered join code unreadable", "error", err)
		}
		return
	}
	if err := s.rejoin(ctx, code); err != nil {
		s.log.WarnContext(ctx, "rejoin failed, staying offline", "code", code, "error", err)
		return
	}
	s.log.InfoContext(ctx, "rejoined shared trip", "code", code)
}

// rejoin subscribes straight away; the first delivery replaces the local
// document if it differs.
func (s *TripSession) rejoin(ctx context.Context, code string) error {
	gen, err := s.beginConnect()
	if err != nil {
		return err
	}
	sub, err := s.subscribe(code, gen)
	if err != nil {
		s.abortConnect(gen)
		return err
	}
	return s.finishConnect(ctx, gen, code, sub)
}

// CreateTrip shares the current document under a freshly generated code and
// connects to it. Returns domain.ErrCodeSpaceExhausted if every attempt
// collided with an existing code.
func (s *TripSession) CreateTrip(ctx context.Context) (string, error) {
	if s.remote == nil {
		return "", fmt.Errorf("service.TripSession.CreateTrip: %w", domain.ErrRemoteUnavailable)
	}
	gen, err := s.beginConnect()
	if err != nil {
		return "", fmt.Errorf("service.TripSession.CreateTrip: %w", err)
	}

	code, err := s.claimCode(ctx, s.Snapshot())
	if err != nil {
		s.abortConnect(gen)
		return "", fmt.Errorf("service.TripSession.CreateTrip: %w", err)
	}

	sub, err := s.subscribe(code, gen)
	if err != nil {
		s.abortConnect(gen)
		return "", fmt.Errorf("service.TripSession.CreateTrip: subscribe: %w", err)
	}
	if err := s.finishConnect(ctx, gen, code, sub); err != nil {
		return "", fmt.Errorf("service.TripSession.CreateTrip: %w", err)
	}
	s.log.InfoContext(ctx, "created shared trip", "code", code)
	return code, nil
}

// claimCode generates codes until one is free and stores doc under it.
// A code seen as taken, or lost to a racing creator, is never returned.
func (s *TripSession) claimCode(ctx context.Context, doc domain.TripDocument) (string, error) {
	for range s.maxCodeAttempts {
		code, err := domain.NewJoinCode(s.random)
		if err != nil {
			return "", err
		}

		exists, err := s.remote.CodeExists(ctx, code)
		if err != nil {
			return "", remoteErr(err)
		}
		if exists {
			s.metrics.CodeCollision()
			s.log.DebugContext(ctx, "join code collision", "code", code)
			continue
		}

		err = s.remote.Create(ctx, code, doc)
		if errors.Is(err, domain.ErrCodeTaken) {
			s.metrics.CodeCollision()
			s.log.DebugContext(ctx, "join code taken during create", "code", code)
			continue
		}
		if err != nil {
			return "", remoteErr(err)
		}
		return code, nil
	}
	return "", domain.ErrCodeSpaceExhausted
}

// JoinTrip binds the session to an existing shared trip. The local document
// is replaced wholesale by the remote one; local edits made before joining
// are discarded. An unknown code returns domain.ErrNotFound and leaves the
// local document untouched.
func (s *TripSession) JoinTrip(ctx context.Context, raw string) (string, error) {
	code, err := domain.NormalizeJoinCode(raw)
	if err != nil {
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", err)
	}
	if s.remote == nil {
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", domain.ErrRemoteUnavailable)
	}
	gen, err := s.beginConnect()
	if err != nil {
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", err)
	}

	doc, err := s.remote.Fetch(ctx, code)
	if err != nil {
		s.abortConnect(gen)
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", remoteErr(err))
	}
	doc.Normalize()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", domain.ErrSessionState)
	}
	s.doc = doc
	s.dirty = false
	s.saveLocked(ctx)
	s.render.RequestRerender()
	s.mu.Unlock()

	sub, err := s.subscribe(code, gen)
	if err != nil {
		s.abortConnect(gen)
		return "", fmt.Errorf("service.TripSession.JoinTrip: subscribe: %w", err)
	}
	if err := s.finishConnect(ctx, gen, code, sub); err != nil {
		return "", fmt.Errorf("service.TripSession.JoinTrip: %w", err)
	}
	s.log.InfoContext(ctx, "joined shared trip", "code", code)
	return code, nil
}

// Disconnect stops syncing and forgets the remembered code. The document is
// kept as it is and nothing is deleted remotely. Calling it while already
// disconnected is a no-op apart from clearing the remembered code.
func (s *TripSession) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	before := s.statusLocked()
	sub := s.sub
	s.gen++
	s.state, s.code, s.sub = StateDisconnected, "", nil
	err := s.local.ClearJoinCode()
	s.rerenderIfChangedLocked(before)
	s.mu.Unlock()

	s.metrics.SetConnected(false)
	if sub != nil {
		if uerr := sub.Unsubscribe(); uerr != nil {
			s.log.WarnContext(ctx, "unsubscribe failed", "error", uerr)
		}
		s.log.InfoContext(ctx, "disconnected from shared trip")
	}
	if err != nil {
		return fmt.Errorf("service.TripSession.Disconnect: %w", err)
	}
	return nil
}

// Mutate applies fn to a copy of the document. If fn fails nothing changes.
// Otherwise the copy becomes the document, is saved locally and, while
// connected, pushed to the remote store in the background. A failed push
// never rolls the local change back.
func (s *TripSession) Mutate(ctx context.Context, fn func(*domain.TripDocument) error) (domain.TripDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		return domain.TripDocument{}, err
	}
	next.Normalize()
	s.doc = next
	s.saveLocked(ctx)
	switch s.state {
	case StateConnected:
		s.startPushLocked(s.code, next.Clone())
	case StateConnecting:
		s.dirty = true
	}
	s.render.RequestRerender()
	return next.Clone(), nil
}

// Snapshot returns a copy of the current document.
func (s *TripSession) Snapshot() domain.TripDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *TripSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *TripSession) statusLocked() Status {
	return Status{State: s.state, Sync: s.syncLocked(), Code: s.code}
}

// rerenderIfChangedLocked requests a rerender when the status differs from
// before.
func (s *TripSession) rerenderIfChangedLocked(before Status) {
	if s.statusLocked() != before {
		s.render.RequestRerender()
	}
}

func (s *TripSession) syncLocked() SyncStatus {
	switch {
	case s.state == StateConnecting:
		return SyncSyncing
	case s.state != StateConnected:
		return SyncOffline
	case s.inflight > 0:
		return SyncSyncing
	case s.pushFailed:
		return SyncOffline
	default:
		return SyncConnected
	}
}

// Flush waits until no push is in flight or ctx is done.
func (s *TripSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unsubscribes, waits for in-flight pushes until ctx is done, then
// cancels whatever is left. The remembered code is kept for the next start.
func (s *TripSession) Close(ctx context.Context) error {
	s.mu.Lock()
	before := s.statusLocked()
	sub := s.sub
	s.gen++
	s.state, s.code, s.sub = StateDisconnected, "", nil
	s.rerenderIfChangedLocked(before)
	s.mu.Unlock()

	s.metrics.SetConnected(false)
	var errs []error
	if sub != nil {
		errs = append(errs, sub.Unsubscribe())
	}
	errs = append(errs, s.Flush(ctx))
	s.cancel()
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("service.TripSession.Close: %w", err)
	}
	return nil
}

// beginConnect moves Disconnected to Connecting and returns the generation
// that owns the attempt.
func (s *TripSession) beginConnect() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		return 0, fmt.Errorf("%w: already %s", domain.ErrSessionState, s.state)
	}
	before := s.statusLocked()
	s.gen++
	s.state = StateConnecting
	s.dirty = false
	s.rerenderIfChangedLocked(before)
	return s.gen, nil
}

// abortConnect returns to Disconnected unless the attempt was superseded.
func (s *TripSession) abortConnect(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		before := s.statusLocked()
		s.state = StateDisconnected
		s.rerenderIfChangedLocked(before)
	}
}

// finishConnect completes an attempt. If the session was disconnected or
// closed meanwhile, the new subscription is dropped.
func (s *TripSession) finishConnect(ctx context.Context, gen uint64, code string, sub repo.Subscription) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		_ = sub.Unsubscribe()
		return domain.ErrSessionState
	}
	if err := s.local.SaveJoinCode(code); err != nil {
		s.log.ErrorContext(ctx, "remember join code", "code", code, "error", err)
	}
	before := s.statusLocked()
	s.state, s.code, s.sub, s.pushFailed = StateConnected, code, sub, false
	if s.dirty {
		s.dirty = false
		s.startPushLocked(code, s.doc.Clone())
	}
	s.rerenderIfChangedLocked(before)
	s.mu.Unlock()

	s.metrics.SetConnected(true)
	return nil
}

func (s *TripSession) subscribe(code string, gen uint64) (repo.Subscription, error) {
	sub, err := s.remote.Subscribe(s.baseCtx, code, func(doc domain.TripDocument) {
		s.handleRemote(gen, doc)
	})
	if err != nil {
		return nil, remoteErr(err)
	}
	return sub, nil
}

// remoteErr marks a remote store failure as ErrRemoteUnavailable. Answers
// the store gives about the data itself pass through unchanged.
func remoteErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCodeTaken) || errors.Is(err, domain.ErrRemoteUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
}

// handleRemote applies a document delivered by the subscription of gen.
// A document equal to the held one is an echo of our own push and is dropped;
// that comparison is what stops a push from looping back forever.
func (s *TripSession) handleRemote(gen uint64, doc domain.TripDocument) {
	doc.Normalize()

	s.mu.Lock()
	if gen != s.gen || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	// Edits made while connecting win over the first delivery; they are
	// pushed as soon as the connection completes.
	if s.state == StateConnecting && s.dirty {
		s.mu.Unlock()
		return
	}
	before := s.statusLocked()
	s.pushFailed = false
	if s.doc.Equal(doc) {
		s.rerenderIfChangedLocked(before)
		s.mu.Unlock()
		s.metrics.RemoteChange(metrics.ChangeEcho)
		s.log.Debug("remote change suppressed as echo")
		return
	}
	s.doc = doc
	s.saveLocked(s.baseCtx)
	s.render.RequestRerender()
	s.mu.Unlock()

	s.metrics.RemoteChange(metrics.ChangeApplied)
	s.log.Debug("remote change applied")
}

// saveLocked persists the held document. A local write failure is logged,
// never surfaced; the in-memory document stays authoritative.
func (s *TripSession) saveLocked(ctx context.Context) {
	if err := s.local.SaveDocument(s.doc); err != nil {
		s.log.ErrorContext(ctx, "save trip document locally", "error", err)
	}
}

func (s *TripSession) startPushLocked(code string, doc domain.TripDocument) {
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	go s.push(s.gen, code, doc)
}

// push replaces the remote document. Pushes are not coalesced and may
// complete out of order.
func (s *TripSession) push(gen uint64, code string, doc domain.TripDocument) {
	ctx := s.baseCtx
	if s.pushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.pushTimeout)
		defer cancel()
	}

	err := s.remote.Replace(ctx, code, doc)

	s.mu.Lock()
	before := s.statusLocked()
	if gen == s.gen {
		s.pushFailed = err != nil
	}
	s.inflight--
	s.rerenderIfChangedLocked(before)
	if s.inflight == 0 {
		close(s.idle)
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.Push(metrics.PushFailed)
		s.log.WarnContext(ctx, "push to remote failed", "code", code, "error", err)
		return
	}
	s.metrics.Push(metrics.PushOK)
}
