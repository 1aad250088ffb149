package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// PostgresStore implements Store with PostgreSQL storage so conversations
// survive process restarts. In-process deployments use InMemoryStore instead.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// SessionSchema represents the dialog_sessions table schema.
type SessionSchema struct {
	bun.BaseModel `bun:"table:dialog_sessions,alias:ds"`

	ChatID      string    `bun:"chat_id,pk" json:"chat_id"`
	Lang        string    `bun:"lang,notnull" json:"lang"`
	StepName    string    `bun:"step_name,nullzero" json:"step_name,omitempty"`
	StepPayload string    `bun:"step_payload,nullzero" json:"step_payload,omitempty"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// CreateTables creates the tables used by the session store.
func CreateTables(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*SessionSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*SessionSchema)(nil), err)
	}
	return nil
}

// Get retrieves a session by conversation id.
func (s *PostgresStore) Get(ctx context.Context, chatID string) (*Session, error) {
	var schema SessionSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("chat_id = ?", chatID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat %s: %w", chatID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return schemaToSession(schema)
}

// Set stores a session, replacing any previous record for the same id.
func (s *PostgresStore) Set(ctx context.Context, session *Session) error {
	if session == nil || session.ChatID == "" {
		return fmt.Errorf("session with chat id is required")
	}

	stepName, stepPayload, err := marshalStep(session.Step)
	if err != nil {
		return err
	}

	schema := &SessionSchema{
		ChatID:      session.ChatID,
		Lang:        string(session.Lang),
		StepName:    stepName,
		StepPayload: stepPayload,
		UpdatedAt:   session.UpdatedAt,
	}

	_, err = s.db.NewInsert().
		Model(schema).
		On("CONFLICT (chat_id) DO UPDATE").
		Set("lang = EXCLUDED.lang").
		Set("step_name = EXCLUDED.step_name").
		Set("step_payload = EXCLUDED.step_payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

// Clear removes a session. Clearing an absent session is not an error.
func (s *PostgresStore) Clear(ctx context.Context, chatID string) error {
	_, err := s.db.NewDelete().
		Model((*SessionSchema)(nil)).
		Where("chat_id = ?", chatID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func marshalStep(step Step) (name string, payload string, err error) {
	if step == nil {
		return "", "", nil
	}
	raw, err := json.Marshal(step)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal step %s: %w", step.StepName(), err)
	}
	return step.StepName(), string(raw), nil
}

func unmarshalStep(name string, payload string) (Step, error) {
	if name == "" {
		return nil, nil
	}
	if payload == "" {
		payload = "{}"
	}

	var step Step
	switch name {
	case StepNameStoryTopic:
		step = &AwaitingStoryTopic{}
	case StepNameVoiceChoice:
		step = &AwaitingVoiceChoice{}
	case StepNameStyleChoice:
		step = &AwaitingStyleChoice{}
	case StepNameRiddleAge:
		step = &AwaitingRiddleAge{}
	default:
		return nil, fmt.Errorf("unknown step name %q", name)
	}

	if err := json.Unmarshal([]byte(payload), step); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step %s: %w", name, err)
	}

	switch v := step.(type) {
	case *AwaitingStoryTopic:
		return *v, nil
	case *AwaitingVoiceChoice:
		return *v, nil
	case *AwaitingStyleChoice:
		return *v, nil
	case *AwaitingRiddleAge:
		return *v, nil
	}
	return nil, fmt.Errorf("unknown step name %q", name)
}

func schemaToSession(schema SessionSchema) (*Session, error) {
	step, err := unmarshalStep(schema.StepName, schema.StepPayload)
	if err != nil {
		return nil, err
	}
	return &Session{
		ChatID:    schema.ChatID,
		Lang:      Language(schema.Lang),
		Step:      step,
		UpdatedAt: schema.UpdatedAt,
	}, nil
}
