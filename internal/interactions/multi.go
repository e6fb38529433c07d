// internal/interactions/multi.go
package interactions

import (
	"context"
	stderrors "errors"

	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

// Multi writes every interaction to all sinks. A failing sink does not stop
// the others; the failures are joined into the returned error.
type Multi struct {
	sinks  map[string]conversation.Recorder
	order  []string
	logger logger.Logger
}

func NewMulti(log logger.Logger) *Multi {
	return &Multi{
		sinks:  make(map[string]conversation.Recorder),
		logger: logger.ForComponent(log, "interactions"),
	}
}

func (m *Multi) Add(name string, sink conversation.Recorder) {
	if _, exists := m.sinks[name]; !exists {
		m.order = append(m.order, name)
	}
	m.sinks[name] = sink
}

func (m *Multi) Len() int { return len(m.order) }

func (m *Multi) Record(ctx context.Context, interaction models.Interaction) error {
	var errs []error
	for _, name := range m.order {
		if err := m.sinks[name].Record(ctx, interaction); err != nil {
			m.logger.Warn("Failed to record interaction", map[string]interface{}{
				"sink":           name,
				"conversationId": interaction.ConversationID,
				"error":          err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
