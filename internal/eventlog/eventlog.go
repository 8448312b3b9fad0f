// Package eventlog appends audit events for record changes to event_log.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeRecordSaved     = "RecordSaved"
	TypeRecordDeleted   = "RecordDeleted"
	TypeRecordsImported = "RecordsImported"
	TypeRecordsReset    = "RecordsReset"
)

type Event struct {
	Seq       int64           `json:"seq"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Actor     string          `json:"actor,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

type EventRepo struct {
	db  *sql.DB
	log *zap.Logger
}

func NewEventRepo(db *sql.DB, log *zap.Logger) *EventRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventRepo{db: db, log: log}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("{}")
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (id, typ, key, actor, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Type, e.Key, e.Actor, string(e.Data), e.CreatedAt)
	return err
}

// Record appends an event and only logs failures; the change it describes
// has already been committed.
func (r *EventRepo) Record(ctx context.Context, typ, key, actor string, payload interface{}) {
	if r == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Warn("event payload", zap.String("type", typ), zap.Error(err))
		data = nil
	}
	if err := r.Append(ctx, Event{Type: typ, Key: key, Actor: actor, Data: data}); err != nil {
		r.log.Warn("event append failed", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}

// Since returns events after seq, oldest first.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq,id,typ,key,actor,data,created_at FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`,
		seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.ID, &e.Type, &e.Key, &e.Actor, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
