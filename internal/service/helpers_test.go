package service

import (
	"context"
	"sync"
	"testing"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

type recordedEvent struct {
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{eventType, data})
}

func (p *recordingPublisher) ofType(eventType string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e.data)
		}
	}
	return out
}

func newTestKV(t *testing.T) (*store.RedisKV, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return store.NewRedisKV(c), mr
}

func testTables() domain.LookupTables {
	return domain.LookupTables{
		PostTowns: []domain.LinkedReference{
			{Ref: 30, Language: domain.LanguageEnglish, LinkedRef: 31, Value: "CARDIFF"},
			{Ref: 31, Language: domain.LanguageWelsh, LinkedRef: 30, Value: "CAERDYDD"},
		},
		Postcodes: []domain.Postcode{{Ref: 5, Value: "cf10 1aa"}},
		StreetDescriptors: []domain.StreetDescriptor{
			{Usrn: 100, Language: domain.LanguageEnglish, Descriptor: "HIGH STREET"},
			{Usrn: 100, Language: domain.LanguageWelsh, Descriptor: "STRYD FAWR"},
		},
	}
}

func prop(uprn, parent int64, status int) domain.PropertyNode {
	n := domain.PropertyNode{
		Uprn:       uprn,
		PrimaryLPI: domain.LPI{Language: domain.LanguageEnglish, Address: "ADDR", LogicalStatus: status},
	}
	if parent != 0 {
		p := parent
		n.ParentUprn = &p
	}
	return n
}
