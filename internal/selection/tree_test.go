package selection

import (
	"testing"

	"gazetteer-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_BuildsNestedNodes(t *testing.T) {
	props := []domain.PropertyNode{
		node(13, 11, 1),
		node(12, 10, 1),
		node(11, 10, 1),
		node(10, 0, 1),
		node(30, 99, 1), // parent not loaded
	}
	c := NewController(props, Options{})
	c.Toggle("11", false)
	c.ToggleExpanded("10")

	tree := c.Tree()

	require.Len(t, tree, 2)
	root := tree[0]
	assert.Equal(t, int64(10), root.Property.Uprn)
	assert.True(t, root.Expanded)
	assert.False(t, root.Checked)
	require.Len(t, root.Children, 2)
	assert.Equal(t, int64(11), root.Children[0].Property.Uprn)
	assert.True(t, root.Children[0].Checked)
	require.Len(t, root.Children[0].Children, 1)
	assert.True(t, root.Children[0].Children[0].Checked)
	assert.Equal(t, int64(30), tree[1].Property.Uprn)
	assert.NotNil(t, tree[1].Children)
}

func TestTree_CycleMembersStillListed(t *testing.T) {
	c := NewController([]domain.PropertyNode{node(1, 2, 1), node(2, 1, 1)}, Options{})

	tree := c.Tree()

	require.Len(t, tree, 1)
	assert.Equal(t, int64(1), tree[0].Property.Uprn)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, int64(2), tree[0].Children[0].Property.Uprn)
	assert.Empty(t, tree[0].Children[0].Children)
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	c := NewController(chain(4), Options{})

	c.ExpandAll()
	assert.Equal(t, []string{"1", "2", "3"}, c.Expanded())

	assert.False(t, c.ToggleExpanded("2"))
	assert.Equal(t, []string{"1", "3"}, c.Expanded())
	assert.True(t, c.ToggleExpanded("2"))

	c.CollapseAll()
	assert.Empty(t, c.Expanded())
}

func TestExpandAll_SkipsParentsNotInList(t *testing.T) {
	c := NewController([]domain.PropertyNode{node(10, 0, 1), node(11, 10, 1), node(30, 99, 1)}, Options{})

	c.ExpandAll()

	assert.Equal(t, []string{"10"}, c.Expanded())
}
