package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colathro/multiplayer-web/internal/database"
	"github.com/colathro/multiplayer-web/internal/model"
)

type itemAppender interface {
	AppendItem(ctx context.Context, tableName string, item interface{}, sortKeyAttr string) error
}

// LedgerSink appends every event to a DynamoDB table keyed by room.
type LedgerSink struct {
	db    itemAppender
	table string
}

func NewLedgerSink(db itemAppender, table string) *LedgerSink {
	return &LedgerSink{db: db, table: table}
}

func (s *LedgerSink) Name() string {
	return "dynamodb"
}

func (s *LedgerSink) Record(ctx context.Context, ev Event) error {
	createdAt := ev.At.UTC().Format(time.RFC3339Nano)
	item := model.PresenceEventItem{
		Room:         ev.Room,
		SK:           model.PresenceEventSK(createdAt, ev.ID),
		EventID:      ev.ID,
		Type:         string(ev.Type),
		ClientID:     ev.ClientID,
		ConnectionID: ev.ConnectionID,
		CreatedAt:    createdAt,
	}
	err := s.db.AppendItem(ctx, s.table, item, model.PresenceEventSortKey)
	if errors.Is(err, database.ErrItemExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("presence ledger: %w", err)
	}
	return nil
}
