package selection

import (
	"slices"

	"gazetteer-data/internal/domain"
)

// TreeNode is one row of the related-properties tree.
type TreeNode struct {
	Property domain.PropertyNode `json:"property"`
	Checked  bool                `json:"checked"`
	Expanded bool                `json:"expanded"`
	Children []*TreeNode         `json:"children"`
}

// ToggleExpanded flips the expanded flag of uprn and reports the new state.
func (c *Controller) ToggleExpanded(uprn string) bool {
	if c.expanded.Has(uprn) {
		c.expanded.remove(uprn)
		return false
	}
	c.expanded.add(uprn)
	return true
}

// ExpandAll expands every listed property that has children in the list.
func (c *Controller) ExpandAll() {
	present := make(map[string]bool, len(c.properties))
	for _, p := range c.properties {
		present[p.ID()] = true
	}
	parents := CheckedSet{}
	for _, p := range c.properties {
		if pid := p.ParentID(); pid != "" && present[pid] {
			parents.add(pid)
		}
	}
	c.expanded = parents
}

// CollapseAll collapses every node.
func (c *Controller) CollapseAll() {
	c.expanded = CheckedSet{}
}

// Expanded returns the expanded ids in UPRN order.
func (c *Controller) Expanded() []string {
	return c.expanded.Slice()
}

// Tree arranges the flat list into parent/child nodes. A node whose parent is not
// in the list is a root. Nodes caught in a parent cycle are listed as roots too.
func (c *Controller) Tree() []*TreeNode {
	present := make(map[string]bool, len(c.properties))
	for _, p := range c.properties {
		present[p.ID()] = true
	}

	children := map[string][]domain.PropertyNode{}
	var roots []domain.PropertyNode
	for _, p := range c.properties {
		pid := p.ParentID()
		if pid == "" || !present[pid] {
			roots = append(roots, p)
			continue
		}
		children[pid] = append(children[pid], p)
	}
	for _, list := range children {
		sortByUprn(list)
	}
	sortByUprn(roots)

	visited := make(map[string]bool, len(c.properties))
	var build func(p domain.PropertyNode) *TreeNode
	build = func(p domain.PropertyNode) *TreeNode {
		id := p.ID()
		visited[id] = true
		n := &TreeNode{
			Property: p,
			Checked:  c.checked.Has(id),
			Expanded: c.expanded.Has(id),
			Children: []*TreeNode{},
		}
		for _, child := range children[id] {
			if visited[child.ID()] {
				continue
			}
			n.Children = append(n.Children, build(child))
		}
		return n
	}

	out := make([]*TreeNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	if len(visited) < len(c.properties) {
		var orphans []domain.PropertyNode
		for _, p := range c.properties {
			if !visited[p.ID()] {
				orphans = append(orphans, p)
			}
		}
		sortByUprn(orphans)
		for _, p := range orphans {
			if !visited[p.ID()] {
				out = append(out, build(p))
			}
		}
	}
	return out
}

func sortByUprn(list []domain.PropertyNode) {
	slices.SortFunc(list, func(a, b domain.PropertyNode) int {
		switch {
		case a.Uprn < b.Uprn:
			return -1
		case a.Uprn > b.Uprn:
			return 1
		}
		return 0
	})
}
