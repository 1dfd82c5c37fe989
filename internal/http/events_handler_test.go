package httpapi

import (
	"context"
	"net/http"
	"testing"

	"gazetteer-data/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventsList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	pub := service.NewStreamPublisher(client, "gazetteer:events", logger)
	pub.Publish(context.Background(), service.EventChecked, service.CheckedEvent{SessionID: "s1", Uprns: []string{"1", "2"}})
	pub.Publish(context.Background(), service.EventErrorChanged, service.ErrorChangedEvent{Errors: []service.FieldError{}})

	r := NewRouter(logger)
	r.RegisterEventRoutes(NewEventsHandler(client, "gazetteer:events", logger))

	w := do(t, r, http.MethodGet, "/gazetteer/api/v1/events", "")
	res := decode[struct {
		Items []EventItem `json:"items"`
	}](t, w)
	require.Equal(t, ResultSuccess, res.Code)
	require.Len(t, res.Result.Items, 2)
	assert.Equal(t, service.EventChecked, res.Result.Items[0].EventType)
	assert.JSONEq(t, `{"session_id":"s1","uprns":["1","2"]}`, string(res.Result.Items[0].Data))
	assert.NotZero(t, res.Result.Items[0].Timestamp)
	assert.Equal(t, service.EventErrorChanged, res.Result.Items[1].EventType)

	w = do(t, r, http.MethodGet, "/gazetteer/api/v1/events?count=1", "")
	res = decode[struct {
		Items []EventItem `json:"items"`
	}](t, w)
	assert.Len(t, res.Result.Items, 1)
}

func TestEventsList_BadCount(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := NewRouter(zap.NewNop())
	r.RegisterEventRoutes(NewEventsHandler(client, "gazetteer:events", zap.NewNop()))

	w := do(t, r, http.MethodGet, "/gazetteer/api/v1/events?count=abc", "")
	assert.Contains(t, w.Body.String(), `"message":"count must be a positive integer"`)

	w = do(t, r, http.MethodPost, "/gazetteer/api/v1/events", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
