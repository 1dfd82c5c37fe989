package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gatedSource blocks ListByStreet for streets that have a gate until it is closed.
type gatedSource struct {
	lists   map[int64][]domain.PropertyNode
	gates   map[int64]chan struct{}
	started chan int64
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		lists:   map[int64][]domain.PropertyNode{},
		gates:   map[int64]chan struct{}{},
		started: make(chan int64, 4),
	}
}

func (g *gatedSource) ListByStreet(ctx context.Context, usrn int64) ([]domain.PropertyNode, error) {
	if gate, ok := g.gates[usrn]; ok {
		g.started <- usrn
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.lists[usrn], nil
}

func (g *gatedSource) ListRelated(context.Context, int64) ([]domain.PropertyNode, error) {
	return nil, repository.ErrPropertyNotFound
}

type recordingHighlighter struct {
	mu    sync.Mutex
	calls [][]string
}

func (h *recordingHighlighter) Highlight(uprns []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, uprns)
}

func chainRepo() *repository.MemoryPropertiesRepository {
	repo := repository.NewMemoryPropertiesRepository()
	repo.Put(100,
		prop(1, 0, domain.LogicalStatusApproved),
		prop(2, 1, domain.LogicalStatusProvisional),
		prop(3, 2, domain.LogicalStatusApproved),
		prop(4, 3, domain.LogicalStatusProvisional),
		prop(5, 0, domain.LogicalStatusHistorical),
	)
	return repo
}

func TestOpenSession_ToggleCascades(t *testing.T) {
	events := &recordingPublisher{}
	hl := &recordingHighlighter{}
	svc := NewRelatedService(chainRepo(), nil, events,
		func(string) selection.Highlighter { return hl },
		RelatedOptions{}, zap.NewNop())
	ctx := context.Background()

	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	require.NotEmpty(t, tree.SessionID)
	assert.Equal(t, 5, tree.Total)
	assert.Equal(t, selection.AggregateNone, tree.Aggregate)
	require.Len(t, tree.Nodes, 2)

	view, err := svc.Toggle(ctx, tree.SessionID, "1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, view.Checked)
	assert.Equal(t, selection.AggregateSome, view.Aggregate)

	view, err = svc.Toggle(ctx, tree.SessionID, "2", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, view.Checked)

	require.Len(t, hl.calls, 2)
	checked := events.ofType(EventChecked)
	require.Len(t, checked, 2)
	assert.Equal(t, tree.SessionID, checked[1].(CheckedEvent).SessionID)
}

func TestSelect_Modes(t *testing.T) {
	svc := NewRelatedService(chainRepo(), nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	id := tree.SessionID

	view, err := svc.Select(ctx, id, SelectRequest{Mode: "provisional"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, view.Checked)
	assert.Equal(t, selection.AggregateSome, view.Aggregate)

	view, err = svc.Select(ctx, id, SelectRequest{Mode: "all"})
	require.NoError(t, err)
	assert.Equal(t, selection.AggregateAll, view.Aggregate)

	view, err = svc.Select(ctx, id, SelectRequest{Mode: "status", Status: domain.LogicalStatusHistorical})
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, view.Checked)

	view, err = svc.Select(ctx, id, SelectRequest{Mode: "none"})
	require.NoError(t, err)
	assert.Empty(t, view.Checked)
	assert.Equal(t, selection.AggregateNone, view.Aggregate)

	_, err = svc.Select(ctx, id, SelectRequest{Mode: "status"})
	assert.EqualError(t, err, "status is required")
	_, err = svc.Select(ctx, id, SelectRequest{Mode: "bogus"})
	assert.Error(t, err)
}

func TestLoad_StaleResponseIsDiscarded(t *testing.T) {
	src := newGatedSource()
	src.lists[1] = []domain.PropertyNode{prop(10, 0, 1)}
	src.lists[2] = []domain.PropertyNode{prop(20, 0, 1), prop(21, 20, 6)}
	svc := NewRelatedService(src, nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()

	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 2})
	require.NoError(t, err)
	id := tree.SessionID

	src.gates[1] = make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx, id, LoadKey{Usrn: 1})
		errc <- err
	}()
	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow load never started")
	}

	// a newer load completes while the first is still in flight
	_, err = svc.Load(ctx, id, LoadKey{Usrn: 2})
	require.NoError(t, err)
	close(src.gates[1])

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStaleLoad)
	case <-time.After(2 * time.Second):
		t.Fatal("slow load never returned")
	}

	tree, err = svc.Tree(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, LoadKey{Usrn: 2}, tree.Key)
	assert.Equal(t, 2, tree.Total)
}

func TestReload_KeepsSelection(t *testing.T) {
	repo := chainRepo()
	svc := NewRelatedService(repo, nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, tree.SessionID, "5", false)
	require.NoError(t, err)

	repo.Put(100, prop(6, 0, domain.LogicalStatusApproved))
	tree, err = svc.Reload(ctx, tree.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 6, tree.Total)
	assert.Equal(t, []string{"5"}, tree.Checked)
}

func TestLoad_FailureKeepsPreviousKey(t *testing.T) {
	kv, mr := newTestKV(t)
	svc := NewRelatedService(chainRepo(), kv, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	id := tree.SessionID

	_, err = svc.Load(ctx, id, LoadKey{Uprn: 999})
	assert.ErrorIs(t, err, repository.ErrPropertyNotFound)

	view, err := svc.SelectAll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, LoadKey{Usrn: 100}, view.Key)
	assert.Equal(t, 5, view.Total)

	raw, err := mr.Get(relatedSessionKeyPrefix + id)
	require.NoError(t, err)
	var snap sessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, LoadKey{Usrn: 100}, snap.Key)

	tree, err = svc.Reload(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, LoadKey{Usrn: 100}, tree.Key)
	assert.Equal(t, 5, tree.Total)
}

func TestTree_DoesNotWriteSnapshot(t *testing.T) {
	kv, mr := newTestKV(t)
	svc := NewRelatedService(chainRepo(), kv, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	id := tree.SessionID
	require.True(t, mr.Exists(relatedSessionKeyPrefix+id))

	mr.Del(relatedSessionKeyPrefix + id)
	_, err = svc.Tree(ctx, id)
	require.NoError(t, err)
	assert.False(t, mr.Exists(relatedSessionKeyPrefix+id))

	_, err = svc.ToggleExpanded(ctx, id, "1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(relatedSessionKeyPrefix+id))
}

func TestSession_SnapshotSurvivesRestart(t *testing.T) {
	kv, mr := newTestKV(t)
	repo := chainRepo()
	ctx := context.Background()

	first := NewRelatedService(repo, kv, nil, nil, RelatedOptions{SessionTTL: time.Minute}, zap.NewNop())
	tree, err := first.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)
	id := tree.SessionID
	_, err = first.Toggle(ctx, id, "3", false)
	require.NoError(t, err)
	_, err = first.ToggleExpanded(ctx, id, "1")
	require.NoError(t, err)

	raw, err := mr.Get(relatedSessionKeyPrefix + id)
	require.NoError(t, err)
	var snap sessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, []string{"3", "4"}, snap.Checked)
	assert.Equal(t, []string{"1"}, snap.Expanded)
	assert.Greater(t, mr.TTL(relatedSessionKeyPrefix+id), time.Duration(0))

	second := NewRelatedService(repo, kv, nil, nil, RelatedOptions{}, zap.NewNop())
	tree, err = second.Tree(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, tree.Checked)
	assert.Equal(t, []string{"1"}, tree.Expanded)
	assert.Equal(t, 5, tree.Total)

	require.NoError(t, second.CloseSession(ctx, id))
	assert.False(t, mr.Exists(relatedSessionKeyPrefix+id))
	_, err = second.Tree(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpandAllCollapseAll(t *testing.T) {
	svc := NewRelatedService(chainRepo(), nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Usrn: 100})
	require.NoError(t, err)

	tree, err = svc.ExpandAll(ctx, tree.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, tree.Expanded)
	assert.True(t, tree.Nodes[0].Expanded)

	tree, err = svc.CollapseAll(ctx, tree.SessionID)
	require.NoError(t, err)
	assert.Empty(t, tree.Expanded)
}

func TestOpenSession_Errors(t *testing.T) {
	svc := NewRelatedService(chainRepo(), nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.OpenSession(ctx, LoadKey{})
	assert.EqualError(t, err, "usrn or uprn is required")
	_, err = svc.OpenSession(ctx, LoadKey{Usrn: 1, Uprn: 2})
	assert.Error(t, err)

	_, err = svc.OpenSession(ctx, LoadKey{Uprn: 999})
	assert.ErrorIs(t, err, repository.ErrPropertyNotFound)
	assert.Empty(t, svc.sessions)

	_, err = svc.Toggle(ctx, "missing", "1", false)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExport(t *testing.T) {
	svc := NewRelatedService(chainRepo(), nil, nil, nil, RelatedOptions{}, zap.NewNop())
	ctx := context.Background()
	tree, err := svc.OpenSession(ctx, LoadKey{Uprn: 3})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, tree.SessionID, "4", false)
	require.NoError(t, err)

	data, err := svc.Export(ctx, tree.SessionID)
	require.NoError(t, err)
	assert.Len(t, data.Properties, 4)
	assert.True(t, data.Checked.Has("4"))
	assert.False(t, data.Checked.Has("1"))
}
