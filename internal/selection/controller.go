package selection

import (
	"gazetteer-data/internal/domain"
)

// Highlighter is the map collaborator told which properties to highlight.
// Calls are fire-and-forget.
type Highlighter interface {
	Highlight(uprns []string)
}

// Options configures a Controller.
type Options struct {
	// MaxDepth limits how many descendant levels a cascade follows. Zero means
	// no limit; 3 reproduces the legacy parent/child/grandchild/great-grandchild tree.
	MaxDepth int
	// Highlighter, if set, receives the checked UPRNs after every change.
	Highlighter Highlighter
	// OnChecked, if set, receives the checked UPRNs after every change.
	OnChecked func(uprns []string)
}

// Controller holds the checked and expanded state of a related-properties list.
// It is not safe for concurrent use.
type Controller struct {
	properties []domain.PropertyNode
	checked    CheckedSet
	expanded   CheckedSet
	opts       Options
}

// NewController creates a controller over properties with nothing checked.
func NewController(properties []domain.PropertyNode, opts Options) *Controller {
	return &Controller{
		properties: properties,
		checked:    CheckedSet{},
		expanded:   CheckedSet{},
		opts:       opts,
	}
}

// Properties returns the current list. Callers must not modify it.
func (c *Controller) Properties() []domain.PropertyNode {
	return c.properties
}

// Replace swaps in a freshly loaded list. Checked and expanded ids are kept,
// including ones that no longer match a property.
func (c *Controller) Replace(properties []domain.PropertyNode) {
	c.properties = properties
}

// Checked returns a copy of the checked set.
func (c *Controller) Checked() CheckedSet {
	return c.checked.Clone()
}

// Aggregate reports all/some/none for the current checked set.
func (c *Controller) Aggregate() Aggregate {
	return aggregateOf(len(c.checked), len(c.properties))
}

// Restore replaces the checked and expanded sets without notifying anyone.
func (c *Controller) Restore(checked, expanded []string) {
	c.checked = NewCheckedSet(checked...)
	c.expanded = NewCheckedSet(expanded...)
}

// Toggle flips uprn. Unless modifierHeld, the same change is applied to every
// descendant reachable through parentUprn links.
func (c *Controller) Toggle(uprn string, modifierHeld bool) CheckedSet {
	checking := !c.checked.Has(uprn)
	c.apply(uprn, checking)
	if !modifierHeld {
		for _, id := range c.Descendants(uprn) {
			c.apply(id, checking)
		}
	}
	c.notify()
	return c.Checked()
}

// SelectAll checks every property.
func (c *Controller) SelectAll() CheckedSet {
	next := make(CheckedSet, len(c.properties))
	for _, p := range c.properties {
		next.add(p.ID())
	}
	return c.replaceChecked(next)
}

// SelectNone clears the checked set.
func (c *Controller) SelectNone() CheckedSet {
	return c.replaceChecked(CheckedSet{})
}

// SelectByLogicalStatus checks exactly the properties with an LPI in status.
func (c *Controller) SelectByLogicalStatus(status int) CheckedSet {
	next := CheckedSet{}
	for _, p := range c.properties {
		if p.HasLogicalStatus(status) {
			next.add(p.ID())
		}
	}
	return c.replaceChecked(next)
}

// SelectProvisional checks the provisional properties.
func (c *Controller) SelectProvisional() CheckedSet {
	return c.SelectByLogicalStatus(domain.LogicalStatusProvisional)
}

// SelectApproved checks the approved properties.
func (c *Controller) SelectApproved() CheckedSet {
	return c.SelectByLogicalStatus(domain.LogicalStatusApproved)
}

// Descendants lists the strict descendants of uprn level by level. Each level is
// found by scanning the whole list for nodes whose parent is in the previous level.
func (c *Controller) Descendants(uprn string) []string {
	if uprn == "" {
		return nil
	}
	visited := map[string]bool{uprn: true}
	level := map[string]bool{uprn: true}
	var out []string
	for depth := 1; len(level) > 0; depth++ {
		if c.opts.MaxDepth > 0 && depth > c.opts.MaxDepth {
			break
		}
		next := map[string]bool{}
		for _, p := range c.properties {
			id := p.ID()
			if visited[id] || !level[p.ParentID()] {
				continue
			}
			visited[id] = true
			next[id] = true
			out = append(out, id)
		}
		level = next
	}
	return out
}

func (c *Controller) apply(id string, checking bool) {
	if checking {
		c.checked.add(id)
	} else {
		c.checked.remove(id)
	}
}

func (c *Controller) replaceChecked(next CheckedSet) CheckedSet {
	c.checked = next
	c.notify()
	return c.Checked()
}

func (c *Controller) notify() {
	if c.opts.Highlighter == nil && c.opts.OnChecked == nil {
		return
	}
	ids := c.checked.Slice()
	if c.opts.Highlighter != nil {
		c.opts.Highlighter.Highlight(ids)
	}
	if c.opts.OnChecked != nil {
		c.opts.OnChecked(ids)
	}
}
