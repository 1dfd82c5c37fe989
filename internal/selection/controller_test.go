package selection

import (
	"testing"

	"gazetteer-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(uprn int64, parent int64, status int) domain.PropertyNode {
	n := domain.PropertyNode{
		Uprn:       uprn,
		PrimaryLPI: domain.LPI{Language: domain.LanguageEnglish, LogicalStatus: status},
	}
	if parent != 0 {
		p := parent
		n.ParentUprn = &p
	}
	return n
}

// chain builds a straight line 1 -> 2 -> ... -> depth.
func chain(depth int) []domain.PropertyNode {
	out := make([]domain.PropertyNode, 0, depth)
	for i := 1; i <= depth; i++ {
		out = append(out, node(int64(i), int64(i-1), domain.LogicalStatusApproved))
	}
	return out
}

type recordingHighlighter struct {
	calls [][]string
}

func (r *recordingHighlighter) Highlight(uprns []string) {
	r.calls = append(r.calls, uprns)
}

func TestToggle_CascadesThroughFourLevelChain(t *testing.T) {
	c := NewController(chain(4), Options{})

	got := c.Toggle("1", false)

	assert.Equal(t, []string{"1", "2", "3", "4"}, got.Slice())
	assert.Equal(t, AggregateAll, c.Aggregate())
}

func TestToggle_ModifierSuppressesCascade(t *testing.T) {
	c := NewController(chain(4), Options{})

	got := c.Toggle("1", true)

	assert.Equal(t, []string{"1"}, got.Slice())
	assert.Equal(t, AggregateSome, c.Aggregate())
}

func TestToggle_UncheckCascades(t *testing.T) {
	c := NewController(chain(4), Options{})
	c.SelectAll()

	got := c.Toggle("2", false)

	assert.Equal(t, []string{"1"}, got.Slice())
}

func TestToggle_UncheckWithModifierLeavesChildren(t *testing.T) {
	c := NewController(chain(3), Options{})
	c.SelectAll()

	got := c.Toggle("1", true)

	assert.Equal(t, []string{"2", "3"}, got.Slice())
}

func TestToggle_DirectionFollowsToggledNode(t *testing.T) {
	// 1 unchecked with a checked child: checking 1 checks the whole branch.
	c := NewController(chain(3), Options{})
	c.Toggle("2", true)

	got := c.Toggle("1", false)

	assert.Equal(t, []string{"1", "2", "3"}, got.Slice())
}

func TestToggle_DeepChainUnbounded(t *testing.T) {
	c := NewController(chain(7), Options{})

	got := c.Toggle("1", false)

	assert.Equal(t, 7, got.Len())
}

func TestToggle_MaxDepthReproducesLegacyLimit(t *testing.T) {
	c := NewController(chain(6), Options{MaxDepth: 3})

	got := c.Toggle("1", false)

	assert.Equal(t, []string{"1", "2", "3", "4"}, got.Slice())
}

func TestToggle_BranchingTree(t *testing.T) {
	props := []domain.PropertyNode{
		node(10, 0, 1),
		node(11, 10, 1),
		node(12, 10, 1),
		node(13, 11, 1),
		node(20, 0, 1),
		node(21, 20, 1),
	}
	c := NewController(props, Options{})

	got := c.Toggle("10", false)

	assert.Equal(t, []string{"10", "11", "12", "13"}, got.Slice())
	assert.Equal(t, AggregateSome, c.Aggregate())
}

func TestToggle_ParentCycleTerminates(t *testing.T) {
	a := node(1, 2, 1)
	b := node(2, 1, 1)
	c := NewController([]domain.PropertyNode{a, b}, Options{})

	got := c.Toggle("1", false)

	assert.Equal(t, []string{"1", "2"}, got.Slice())
}

func TestToggle_NotifiesCollaborators(t *testing.T) {
	hl := &recordingHighlighter{}
	var emitted []string
	c := NewController(chain(2), Options{
		Highlighter: hl,
		OnChecked:   func(ids []string) { emitted = ids },
	})

	c.Toggle("1", false)

	require.Len(t, hl.calls, 1)
	assert.Equal(t, []string{"1", "2"}, hl.calls[0])
	assert.Equal(t, []string{"1", "2"}, emitted)
}

func TestToggle_ReturnsCopy(t *testing.T) {
	c := NewController(chain(2), Options{})

	got := c.Toggle("1", true)
	got.remove("1")

	assert.True(t, c.Checked().Has("1"))
}

func TestSelectAllThenNone(t *testing.T) {
	c := NewController(chain(5), Options{})

	all := c.SelectAll()
	assert.Equal(t, 5, all.Len())
	assert.Equal(t, AggregateAll, c.Aggregate())

	none := c.SelectNone()
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, AggregateNone, c.Aggregate())
}

func TestSelectByLogicalStatus(t *testing.T) {
	props := []domain.PropertyNode{
		node(1, 0, domain.LogicalStatusApproved),
		node(2, 1, domain.LogicalStatusProvisional),
		node(3, 1, domain.LogicalStatusApproved),
		node(4, 0, domain.LogicalStatusProvisional),
		node(5, 4, domain.LogicalStatusHistorical),
	}
	c := NewController(props, Options{})

	got := c.SelectByLogicalStatus(6)

	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"2", "4"}, got.Slice())
	assert.Equal(t, AggregateSome, c.Aggregate())

	approved := c.SelectApproved()
	assert.Equal(t, []string{"1", "3"}, approved.Slice())

	provisional := c.SelectProvisional()
	assert.Equal(t, []string{"2", "4"}, provisional.Slice())
}

func TestSelectByLogicalStatus_MatchesAdditionalLPI(t *testing.T) {
	p := node(1, 0, domain.LogicalStatusApproved)
	p.AdditionalLPIs = []domain.LPI{{Language: domain.LanguageWelsh, LogicalStatus: domain.LogicalStatusProvisional}}
	c := NewController([]domain.PropertyNode{p, node(2, 0, 1)}, Options{})

	got := c.SelectProvisional()

	assert.Equal(t, []string{"1"}, got.Slice())
}

func TestReplace_StaleSelectionIsInert(t *testing.T) {
	c := NewController(chain(3), Options{})
	c.SelectAll()

	c.Replace(chain(2))

	assert.True(t, c.Checked().Has("3"))
	assert.Equal(t, 3, c.Checked().Len())
	assert.Equal(t, AggregateSome, c.Aggregate())
}

func TestAggregate_EmptyList(t *testing.T) {
	c := NewController(nil, Options{})
	assert.Equal(t, AggregateNone, c.Aggregate())
	assert.Equal(t, 0, c.SelectAll().Len())
	assert.Equal(t, AggregateNone, c.Aggregate())
}

func TestRestore(t *testing.T) {
	hl := &recordingHighlighter{}
	c := NewController(chain(3), Options{Highlighter: hl})

	c.Restore([]string{"2"}, []string{"1"})

	assert.Equal(t, []string{"2"}, c.Checked().Slice())
	assert.Equal(t, []string{"1"}, c.Expanded())
	assert.Empty(t, hl.calls)
}

func TestCheckedSet_SliceOrdersNumerically(t *testing.T) {
	s := NewCheckedSet("100", "9", "10010", "25")
	assert.Equal(t, []string{"9", "25", "100", "10010"}, s.Slice())
}

func TestAggregate_String(t *testing.T) {
	assert.Equal(t, "all", AggregateAll.String())
	assert.Equal(t, "some", AggregateSome.String())
	assert.Equal(t, "none", AggregateNone.String())
	b, err := AggregateSome.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "some", string(b))

	var a Aggregate
	require.NoError(t, a.UnmarshalText([]byte("all")))
	assert.Equal(t, AggregateAll, a)
	assert.Error(t, a.UnmarshalText([]byte("most")))
}
