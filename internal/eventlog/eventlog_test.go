package eventlog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mind-engage/motorskill/internal/db"
)

func TestRecordAndSince(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer h.Close()

	repo := NewEventRepo(h, nil)
	repo.Record(ctx, TypeRecordSaved, "abc|2024-01-01", "u1", map[string]int{"total": 40})
	repo.Record(ctx, TypeRecordDeleted, "abc|2024-01-01", "u1", nil)

	evs, err := repo.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, TypeRecordSaved, evs[0].Type)
	assert.JSONEq(t, `{"total":40}`, string(evs[0].Data))
	assert.NotEmpty(t, evs[0].ID)
	assert.Less(t, evs[0].Seq, evs[1].Seq)

	later, err := repo.Since(ctx, evs[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, TypeRecordDeleted, later[0].Type)
}

func TestRecord_BestEffort(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	_, err = h.ExecContext(ctx, `DROP TABLE event_log`)
	require.NoError(t, err)
	defer h.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	repo := NewEventRepo(h, zap.New(core))
	repo.Record(ctx, TypeRecordsReset, "*", "admin", map[string]int{"deleted": 3})
	assert.Equal(t, 1, logs.FilterMessage("event append failed").Len())

	var nilRepo *EventRepo
	nilRepo.Record(ctx, TypeRecordsReset, "*", "admin", nil)
}
