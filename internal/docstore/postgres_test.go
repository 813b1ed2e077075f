package docstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPGStore(mock)
	ctx := context.Background()

	mock.ExpectQuery("SELECT value FROM documents").
		WithArgs("services", "haircut").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"name":"Corte de Cabelo"}`)))
	mock.ExpectQuery("SELECT value FROM documents").
		WithArgs("services", "missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.Get(ctx, "services/haircut")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Corte de Cabelo"}`, string(got))

	_, err = store.Get(ctx, "services/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT key, value FROM documents").
		WithArgs("diasdesativados").
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow("05-06-2024", []byte(`{"blocked":true}`)).
			AddRow("06-06-2024", []byte(`{"blocked":true}`)))

	docs, err := NewPGStore(mock).List(context.Background(), "diasdesativados")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.JSONEq(t, `{"blocked":true}`, string(docs["05-06-2024"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_ListWhereFiltersOnField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM documents WHERE collection=$1 AND value->>'dia' = $2`)).
		WithArgs("agendamentobarbeiro", "04/06/2024").
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow("a1", []byte(`{"dia":"04/06/2024","horario":"10:00"}`)))

	store := NewPGStore(mock)
	docs, err := store.ListWhere(context.Background(), "agendamentobarbeiro", "dia", "04/06/2024")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Contains(t, docs, "a1")

	_, err = store.ListWhere(context.Background(), "agendamentobarbeiro", "dia' OR '1'='1", "x")
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_SetNotifiesInsideTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("agendamentobarbeiro", "42", `{"dia":"01/06/2024"}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("SELECT pg_notify").
		WithArgs(DefaultNotifyChannel, `{"collection":"agendamentobarbeiro","key":"42","op":"set"}`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	err = NewPGStore(mock).Set(context.Background(), "agendamentobarbeiro/42", []byte(`{"dia":"01/06/2024"}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_RemoveRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents").
		WithArgs("agendamentobarbeiro", "42").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = NewPGStore(mock).Remove(context.Background(), "agendamentobarbeiro/42")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubListener struct {
	payloads chan string
	channel  string
}

func (l *stubListener) Listen(_ context.Context, channel string) (<-chan string, error) {
	l.channel = channel
	return l.payloads, nil
}

func TestPGStore_SubscribeFiltersCollections(t *testing.T) {
	listener := &stubListener{payloads: make(chan string, 4)}
	store := NewPGStore(nil, WithListener(listener), WithNotifyChannel("changes"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx, "finalizados")
	require.NoError(t, err)
	assert.Equal(t, "changes", listener.channel)

	listener.payloads <- `{"collection":"services","key":"x","op":"set"}`
	listener.payloads <- `garbage`
	listener.payloads <- `{"collection":"finalizados","key":"9","op":"set"}`

	select {
	case c := <-changes:
		assert.Equal(t, Change{Collection: "finalizados", Key: "9", Op: OpSet}, c)
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestPGStore_SubscribeWithoutListener(t *testing.T) {
	_, err := NewPGStore(nil).Subscribe(context.Background(), "finalizados")
	assert.Error(t, err)
}
