package mapsync

import (
	"encoding/json"
	"time"

	"gazetteer-data/internal/selection"

	"go.uber.org/zap"
)

// Publisher is the subset of common/mqtt.Client used here.
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// HighlightMessage is the payload the map view subscribes to.
type HighlightMessage struct {
	SessionID string   `json:"session_id"`
	Uprns     []string `json:"uprns"`
	Timestamp int64    `json:"timestamp"`
}

// MQTTHighlighter publishes the checked UPRNs of one selection session to the
// map highlight topic. Failures are logged and dropped.
type MQTTHighlighter struct {
	publisher Publisher
	topic     string
	sessionID string
	logger    *zap.Logger
}

var _ selection.Highlighter = (*MQTTHighlighter)(nil)

func NewMQTTHighlighter(publisher Publisher, topic, sessionID string, logger *zap.Logger) *MQTTHighlighter {
	return &MQTTHighlighter{publisher: publisher, topic: topic, sessionID: sessionID, logger: logger}
}

func (h *MQTTHighlighter) Highlight(uprns []string) {
	if uprns == nil {
		uprns = []string{}
	}
	payload, err := json.Marshal(HighlightMessage{
		SessionID: h.sessionID,
		Uprns:     uprns,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Error("Failed to encode highlight message", zap.Error(err))
		return
	}
	// retained so a map view opened later shows the current highlight
	if err := h.publisher.Publish(h.topic, true, payload); err != nil {
		h.logger.Warn("Failed to publish map highlight",
			zap.String("session_id", h.sessionID),
			zap.String("topic", h.topic),
			zap.Error(err),
		)
	}
}

// LogHighlighter only logs, for deployments without a broker.
type LogHighlighter struct {
	sessionID string
	logger    *zap.Logger
}

func NewLogHighlighter(sessionID string, logger *zap.Logger) *LogHighlighter {
	return &LogHighlighter{sessionID: sessionID, logger: logger}
}

func (h *LogHighlighter) Highlight(uprns []string) {
	h.logger.Debug("Map highlight",
		zap.String("session_id", h.sessionID),
		zap.Strings("uprns", uprns),
	)
}

// Factory builds a highlighter for a selection session.
type Factory func(sessionID string) selection.Highlighter

// NewFactory returns an MQTT-backed factory when publisher is non-nil and a
// logging one otherwise.
func NewFactory(publisher Publisher, topic string, logger *zap.Logger) Factory {
	if publisher == nil {
		return func(sessionID string) selection.Highlighter {
			return NewLogHighlighter(sessionID, logger)
		}
	}
	return func(sessionID string) selection.Highlighter {
		return NewMQTTHighlighter(publisher, topic, sessionID, logger)
	}
}
