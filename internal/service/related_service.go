package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/mapsync"
	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/selection"
	"gazetteer-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("selection session not found")
	// ErrStaleLoad is returned when a newer load started while this one was in flight.
	ErrStaleLoad = errors.New("load superseded by a newer request")
)

const relatedSessionKeyPrefix = "gazetteer:related:"

// LoadKey identifies the list a session shows: a street or a property family.
type LoadKey struct {
	Usrn int64 `json:"usrn,omitempty"`
	Uprn int64 `json:"uprn,omitempty"`
}

func (k LoadKey) validate() error {
	switch {
	case k.Usrn == 0 && k.Uprn == 0:
		return fmt.Errorf("usrn or uprn is required")
	case k.Usrn != 0 && k.Uprn != 0:
		return fmt.Errorf("only one of usrn and uprn may be set")
	case k.Usrn < 0 || k.Uprn < 0:
		return fmt.Errorf("usrn and uprn must be positive")
	}
	return nil
}

// RelatedOptions configures RelatedService.
type RelatedOptions struct {
	// MaxDepth is passed to each selection controller; zero means unbounded.
	MaxDepth int
	// SessionTTL bounds how long an idle session snapshot survives in the KV store.
	SessionTTL time.Duration
}

// RelatedService owns related-properties selection sessions. Each session wraps a
// selection.Controller guarded by its own mutex.
type RelatedService struct {
	source       repository.PropertySource
	kv           store.KV // optional
	events       EventPublisher
	highlighters mapsync.Factory
	opts         RelatedOptions
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*relatedSession
}

type relatedSession struct {
	mu         sync.Mutex
	id         string
	key        LoadKey
	generation uint64
	ctrl       *selection.Controller
}

// sessionSnapshot is what survives in the KV store between requests and restarts.
type sessionSnapshot struct {
	Key      LoadKey  `json:"key"`
	Checked  []string `json:"checked"`
	Expanded []string `json:"expanded"`
}

func NewRelatedService(source repository.PropertySource, kv store.KV, events EventPublisher, highlighters mapsync.Factory, opts RelatedOptions, logger *zap.Logger) *RelatedService {
	if events == nil {
		events = NopPublisher{}
	}
	if highlighters == nil {
		highlighters = mapsync.NewFactory(nil, "", logger)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &RelatedService{
		source:       source,
		kv:           kv,
		events:       events,
		highlighters: highlighters,
		opts:         opts,
		logger:       logger,
		sessions:     map[string]*relatedSession{},
	}
}

// SelectionView is the checked state returned after every selection change.
type SelectionView struct {
	SessionID string              `json:"sessionId"`
	Key       LoadKey             `json:"key"`
	Checked   []string            `json:"checked"`
	Aggregate selection.Aggregate `json:"aggregate"`
	Total     int                 `json:"total"`
}

// TreeView adds the nested tree to a SelectionView.
type TreeView struct {
	SelectionView
	Expanded []string              `json:"expanded"`
	Nodes    []*selection.TreeNode `json:"nodes"`
}

func (s *RelatedService) newSession(id string, key LoadKey) *relatedSession {
	sess := &relatedSession{id: id, key: key}
	sess.ctrl = selection.NewController(nil, selection.Options{
		MaxDepth:    s.opts.MaxDepth,
		Highlighter: s.highlighters(id),
		OnChecked: func(uprns []string) {
			s.events.Publish(context.Background(), EventChecked, CheckedEvent{SessionID: id, Uprns: uprns})
		},
	})
	return sess
}

// OpenSession creates a session for key and performs its first load.
func (s *RelatedService) OpenSession(ctx context.Context, key LoadKey) (*TreeView, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	sess := s.newSession(id, key)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	if _, err := s.load(ctx, sess, key); err != nil {
		s.dropSession(ctx, id)
		return nil, err
	}
	s.logger.Info("Opened selection session",
		zap.String("session_id", id),
		zap.Int64("usrn", key.Usrn),
		zap.Int64("uprn", key.Uprn),
	)
	return s.Tree(ctx, id)
}

// Load fetches the list for key and swaps it into the session. A load that
// finishes after a newer one started returns ErrStaleLoad and changes nothing.
func (s *RelatedService) Load(ctx context.Context, sessionID string, key LoadKey) (*TreeView, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, sess, key); err != nil {
		return nil, err
	}
	return s.Tree(ctx, sessionID)
}

// Reload repeats the session's last load.
func (s *RelatedService) Reload(ctx context.Context, sessionID string) (*TreeView, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	key := sess.key
	sess.mu.Unlock()
	return s.Load(ctx, sessionID, key)
}

func (s *RelatedService) load(ctx context.Context, sess *relatedSession, key LoadKey) (uint64, error) {
	sess.mu.Lock()
	sess.generation++
	gen := sess.generation
	sess.mu.Unlock()

	nodes, err := s.fetch(ctx, key)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != gen {
		s.logger.Debug("Discarding stale related-properties load",
			zap.String("session_id", sess.id),
			zap.Uint64("generation", gen),
			zap.Uint64("current", sess.generation),
		)
		return gen, ErrStaleLoad
	}
	if err != nil {
		s.logger.Error("Failed to load related properties",
			zap.String("session_id", sess.id),
			zap.Int64("usrn", key.Usrn),
			zap.Int64("uprn", key.Uprn),
			zap.Error(err),
		)
		return gen, fmt.Errorf("failed to load related properties: %w", err)
	}
	sess.key = key
	sess.ctrl.Replace(nodes)
	s.persist(ctx, sess)
	return gen, nil
}

func (s *RelatedService) fetch(ctx context.Context, key LoadKey) ([]domain.PropertyNode, error) {
	if key.Usrn != 0 {
		return s.source.ListByStreet(ctx, key.Usrn)
	}
	return s.source.ListRelated(ctx, key.Uprn)
}

// session finds a live session, or revives one from its KV snapshot.
func (s *RelatedService) session(ctx context.Context, id string) (*relatedSession, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	if s.kv == nil {
		return nil, ErrSessionNotFound
	}

	raw, err := s.kv.Get(ctx, relatedSessionKeyPrefix+id)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Session snapshot read failed", zap.String("session_id", id), zap.Error(err))
		}
		return nil, ErrSessionNotFound
	}
	var snap sessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Key.validate() != nil {
		s.logger.Warn("Discarding corrupt session snapshot", zap.String("session_id", id))
		return nil, ErrSessionNotFound
	}

	sess = s.newSession(id, snap.Key)
	sess.ctrl.Restore(snap.Checked, snap.Expanded)
	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	if _, err := s.load(ctx, sess, snap.Key); err != nil && !errors.Is(err, ErrStaleLoad) {
		return nil, err
	}
	s.logger.Info("Restored selection session", zap.String("session_id", id))
	return sess, nil
}

// persist stores the checked and expanded sets. Caller holds sess.mu.
func (s *RelatedService) persist(ctx context.Context, sess *relatedSession) {
	if s.kv == nil {
		return
	}
	b, err := json.Marshal(sessionSnapshot{
		Key:      sess.key,
		Checked:  sess.ctrl.Checked().Slice(),
		Expanded: sess.ctrl.Expanded(),
	})
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, relatedSessionKeyPrefix+sess.id, string(b), s.opts.SessionTTL); err != nil {
		s.logger.Warn("Session snapshot write failed", zap.String("session_id", sess.id), zap.Error(err))
	}
}

func (s *RelatedService) dropSession(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if s.kv != nil {
		if err := s.kv.Del(ctx, relatedSessionKeyPrefix+id); err != nil {
			s.logger.Warn("Session snapshot delete failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// CloseSession forgets a session and its snapshot.
func (s *RelatedService) CloseSession(ctx context.Context, sessionID string) error {
	if _, err := s.session(ctx, sessionID); err != nil {
		return err
	}
	s.dropSession(ctx, sessionID)
	s.logger.Info("Closed selection session", zap.String("session_id", sessionID))
	return nil
}

// withSession runs fn under the session lock and persists the result.
func (s *RelatedService) withSession(ctx context.Context, sessionID string, fn func(sess *relatedSession)) error {
	return s.runLocked(ctx, sessionID, true, fn)
}

// readSession runs fn under the session lock without writing a snapshot.
func (s *RelatedService) readSession(ctx context.Context, sessionID string, fn func(sess *relatedSession)) error {
	return s.runLocked(ctx, sessionID, false, fn)
}

func (s *RelatedService) runLocked(ctx context.Context, sessionID string, persist bool, fn func(sess *relatedSession)) error {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
	if persist {
		s.persist(ctx, sess)
	}
	return nil
}

func (s *RelatedService) mutate(ctx context.Context, sessionID string, fn func(c *selection.Controller)) (*SelectionView, error) {
	var view SelectionView
	err := s.withSession(ctx, sessionID, func(sess *relatedSession) {
		fn(sess.ctrl)
		view = sess.view()
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// view reads the checked state. Caller holds sess.mu.
func (sess *relatedSession) view() SelectionView {
	return SelectionView{
		SessionID: sess.id,
		Key:       sess.key,
		Checked:   sess.ctrl.Checked().Slice(),
		Aggregate: sess.ctrl.Aggregate(),
		Total:     len(sess.ctrl.Properties()),
	}
}

// Toggle flips uprn, cascading to descendants unless modifier is set.
func (s *RelatedService) Toggle(ctx context.Context, sessionID, uprn string, modifier bool) (*SelectionView, error) {
	if uprn == "" {
		return nil, fmt.Errorf("uprn is required")
	}
	return s.mutate(ctx, sessionID, func(c *selection.Controller) { c.Toggle(uprn, modifier) })
}

func (s *RelatedService) SelectAll(ctx context.Context, sessionID string) (*SelectionView, error) {
	return s.mutate(ctx, sessionID, func(c *selection.Controller) { c.SelectAll() })
}

func (s *RelatedService) SelectNone(ctx context.Context, sessionID string) (*SelectionView, error) {
	return s.mutate(ctx, sessionID, func(c *selection.Controller) { c.SelectNone() })
}

func (s *RelatedService) SelectByLogicalStatus(ctx context.Context, sessionID string, status int) (*SelectionView, error) {
	if status <= 0 {
		return nil, fmt.Errorf("status is required")
	}
	return s.mutate(ctx, sessionID, func(c *selection.Controller) { c.SelectByLogicalStatus(status) })
}

// SelectRequest is the body of the select shortcut endpoint.
type SelectRequest struct {
	Mode   string `json:"mode"`
	Status int    `json:"status"`
}

// Select dispatches a shortcut by mode: all, none, provisional, approved or status.
func (s *RelatedService) Select(ctx context.Context, sessionID string, req SelectRequest) (*SelectionView, error) {
	switch req.Mode {
	case "all":
		return s.SelectAll(ctx, sessionID)
	case "none":
		return s.SelectNone(ctx, sessionID)
	case "provisional":
		return s.SelectByLogicalStatus(ctx, sessionID, domain.LogicalStatusProvisional)
	case "approved":
		return s.SelectByLogicalStatus(ctx, sessionID, domain.LogicalStatusApproved)
	case "status":
		return s.SelectByLogicalStatus(ctx, sessionID, req.Status)
	case "":
		return nil, fmt.Errorf("mode is required")
	}
	return nil, fmt.Errorf("invalid mode: %s", req.Mode)
}

// ToggleExpanded flips one node's expanded flag.
func (s *RelatedService) ToggleExpanded(ctx context.Context, sessionID, uprn string) (*TreeView, error) {
	if uprn == "" {
		return nil, fmt.Errorf("uprn is required")
	}
	return s.tree(ctx, sessionID, func(c *selection.Controller) { c.ToggleExpanded(uprn) })
}

func (s *RelatedService) ExpandAll(ctx context.Context, sessionID string) (*TreeView, error) {
	return s.tree(ctx, sessionID, func(c *selection.Controller) { c.ExpandAll() })
}

func (s *RelatedService) CollapseAll(ctx context.Context, sessionID string) (*TreeView, error) {
	return s.tree(ctx, sessionID, func(c *selection.Controller) { c.CollapseAll() })
}

// Tree returns the current tree without changing anything.
func (s *RelatedService) Tree(ctx context.Context, sessionID string) (*TreeView, error) {
	var view TreeView
	err := s.readSession(ctx, sessionID, func(sess *relatedSession) {
		view = sess.treeView()
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *RelatedService) tree(ctx context.Context, sessionID string, fn func(c *selection.Controller)) (*TreeView, error) {
	var view TreeView
	err := s.withSession(ctx, sessionID, func(sess *relatedSession) {
		fn(sess.ctrl)
		view = sess.treeView()
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// treeView reads the tree state. Caller holds sess.mu.
func (sess *relatedSession) treeView() TreeView {
	return TreeView{
		SelectionView: sess.view(),
		Expanded:      sess.ctrl.Expanded(),
		Nodes:         sess.ctrl.Tree(),
	}
}

// ExportData is a point-in-time copy of a session for spreadsheet export.
type ExportData struct {
	SessionID  string
	Properties []domain.PropertyNode
	Checked    selection.CheckedSet
}

// Export snapshots the session's list and checked set.
func (s *RelatedService) Export(ctx context.Context, sessionID string) (*ExportData, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	props := append([]domain.PropertyNode{}, sess.ctrl.Properties()...)
	return &ExportData{SessionID: sessionID, Properties: props, Checked: sess.ctrl.Checked()}, nil
}
