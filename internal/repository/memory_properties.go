package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gazetteer-data/internal/domain"
)

// MemoryPropertiesRepository serves related-properties lists when no database is
// configured. Nodes are grouped by street.
type MemoryPropertiesRepository struct {
	mu      sync.RWMutex
	byUprn  map[int64]domain.PropertyNode
	streets map[int64][]int64 // usrn -> uprns
}

func NewMemoryPropertiesRepository() *MemoryPropertiesRepository {
	return &MemoryPropertiesRepository{
		byUprn:  map[int64]domain.PropertyNode{},
		streets: map[int64][]int64{},
	}
}

// Put stores nodes under usrn, replacing any node with the same UPRN.
func (r *MemoryPropertiesRepository) Put(usrn int64, nodes ...domain.PropertyNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range nodes {
		if _, ok := r.byUprn[n.Uprn]; !ok {
			r.streets[usrn] = append(r.streets[usrn], n.Uprn)
		}
		r.byUprn[n.Uprn] = n
	}
}

func (r *MemoryPropertiesRepository) ListByStreet(_ context.Context, usrn int64) ([]domain.PropertyNode, error) {
	if usrn <= 0 {
		return nil, fmt.Errorf("usrn is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.PropertyNode{}
	for _, id := range r.streets[usrn] {
		out = append(out, r.byUprn[id])
	}
	sortByUprn(out)
	return out, nil
}

func (r *MemoryPropertiesRepository) ListRelated(_ context.Context, uprn int64) ([]domain.PropertyNode, error) {
	if uprn <= 0 {
		return nil, fmt.Errorf("uprn is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byUprn[uprn]
	if !ok {
		return nil, ErrPropertyNotFound
	}

	// climb to the top ancestor; seen stops on parent cycles
	top := n
	seen := map[int64]bool{top.Uprn: true}
	for top.ParentUprn != nil {
		p, ok := r.byUprn[*top.ParentUprn]
		if !ok || seen[p.Uprn] {
			break
		}
		seen[p.Uprn] = true
		top = p
	}

	children := map[int64][]int64{}
	for id, node := range r.byUprn {
		if node.ParentUprn != nil {
			children[*node.ParentUprn] = append(children[*node.ParentUprn], id)
		}
	}

	out := []domain.PropertyNode{}
	family := map[int64]bool{}
	queue := []int64{top.Uprn}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if family[id] {
			continue
		}
		family[id] = true
		out = append(out, r.byUprn[id])
		queue = append(queue, children[id]...)
	}
	sortByUprn(out)
	return out, nil
}

func sortByUprn(nodes []domain.PropertyNode) {
	slices.SortFunc(nodes, func(a, b domain.PropertyNode) int {
		switch {
		case a.Uprn < b.Uprn:
			return -1
		case a.Uprn > b.Uprn:
			return 1
		}
		return 0
	})
}
