package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	commonredis "gazetteer-data/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	defaultEventCount = 50
	maxEventCount     = 500
)

// EventsHandler replays the wizard and selection event stream.
type EventsHandler struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewEventsHandler(client *redis.Client, stream string, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{client: client, stream: stream, logger: logger}
}

// EventItem is one decoded stream entry.
type EventItem struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// List handles GET /gazetteer/api/v1/events?start=&count=
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := q.Get("start")
	if start == "" {
		start = "-"
	}
	count := int64(defaultEventCount)
	if s := q.Get("count"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusOK, Fail("count must be a positive integer"))
			return
		}
		count = min(n, maxEventCount)
	}

	msgs, err := commonredis.ReadRange(r.Context(), h.client, h.stream, start, count)
	if err != nil {
		h.logger.Error("Failed to read event stream", zap.String("stream", h.stream), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to read events"))
		return
	}

	items := make([]EventItem, 0, len(msgs))
	for _, m := range msgs {
		item := EventItem{ID: m.ID}
		if v, ok := m.Values["event_type"].(string); ok {
			item.EventType = v
		}
		if v, ok := m.Values["timestamp"].(string); ok {
			item.Timestamp, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := m.Values["data"].(string); ok && json.Valid([]byte(v)) {
			item.Data = json.RawMessage(v)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items}))
}
