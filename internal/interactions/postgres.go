// Package interactions persists analytics summaries of processed messages.
package interactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/models"
)

const (
	SinkPostgres = "postgres"
	SinkKafka    = "kafka"

	DefaultTable = "support_interactions"
)

// PostgresRecorder inserts one row per processed message.
type PostgresRecorder struct {
	db    *sql.DB
	table string
}

func NewPostgresRecorder(db *sql.DB, table string) *PostgresRecorder {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresRecorder{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureTable creates the interactions table when it does not exist yet.
func (r *PostgresRecorder) EnsureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			tenant_id TEXT,
			channel TEXT,
			message TEXT NOT NULL,
			intents TEXT[] NOT NULL,
			response_type TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			integrations_used TEXT[] NOT NULL,
			escalated BOOLEAN NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`, r.table))
	if err != nil {
		return errors.NewRecordFailedError(SinkPostgres, err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, interaction models.Interaction) error {
	intents := make([]string, 0, len(interaction.Intents))
	for _, intent := range interaction.Intents {
		intents = append(intents, string(intent))
	}
	integrations := interaction.IntegrationsUsed
	if integrations == nil {
		integrations = []string{}
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			id, conversation_id, tenant_id, channel, message, intents,
			response_type, source, confidence, integrations_used,
			escalated, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, r.table),
		interaction.ID,
		interaction.ConversationID,
		interaction.TenantID,
		interaction.Channel,
		interaction.Message,
		pq.Array(intents),
		string(interaction.ResponseType),
		interaction.Source,
		interaction.Confidence,
		pq.Array(integrations),
		interaction.Escalated,
		interaction.DurationMS,
		interaction.CreatedAt,
	)
	if err != nil {
		return errors.NewRecordFailedError(SinkPostgres, err)
	}
	return nil
}
