package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultNotifyChannel is the LISTEN/NOTIFY channel change messages go to.
const DefaultNotifyChannel = "docstore_changes"

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Listener delivers raw NOTIFY payloads of one channel.
type Listener interface {
	Listen(ctx context.Context, channel string) (<-chan string, error)
}

// PGStore keeps documents in a JSONB table and announces changes with
// pg_notify inside the writing transaction, so listeners only hear about
// committed writes.
type PGStore struct {
	db       DB
	listener Listener
	channel  string
}

type PGStoreOption func(*PGStore)

func WithListener(l Listener) PGStoreOption {
	return func(s *PGStore) {
		s.listener = l
	}
}

func WithNotifyChannel(channel string) PGStoreOption {
	return func(s *PGStore) {
		s.channel = channel
	}
}

func NewPGStore(db DB, opts ...PGStoreOption) *PGStore {
	s := &PGStore{db: db, channel: DefaultNotifyChannel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PGStore) Get(ctx context.Context, path string) ([]byte, error) {
	collection, key, err := Split(path)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = s.db.QueryRow(ctx, `SELECT value FROM documents WHERE collection=$1 AND key=$2`, collection, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %s: %w", path, err)
	}
	return value, nil
}

func (s *PGStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT key, value FROM documents WHERE collection=$1 ORDER BY key`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return collectDocs(rows)
}

// ListWhere spells the field out in the query text so that expression
// indexes on value->>'field' can serve it.
func (s *PGStore) ListWhere(ctx context.Context, collection, field, value string) (map[string][]byte, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	if err := validField(field); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT key, value FROM documents WHERE collection=$1 AND value->>'%s' = $2 ORDER BY key`, field)
	rows, err := s.db.Query(ctx, query, collection, value)
	if err != nil {
		return nil, fmt.Errorf("list %s where %s: %w", collection, field, err)
	}
	return collectDocs(rows)
}

func collectDocs(rows pgx.Rows) (map[string][]byte, error) {
	defer rows.Close()

	docs := make(map[string][]byte)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		docs[key] = value
	}
	return docs, rows.Err()
}

func (s *PGStore) Set(ctx context.Context, path string, value []byte) error {
	collection, key, err := Split(path)
	if err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("docstore: value for %s is not valid JSON", path)
	}
	return s.write(ctx, Change{Collection: collection, Key: key, Op: OpSet}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO documents (collection, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, collection, key, string(value))
		return err
	})
}

func (s *PGStore) Remove(ctx context.Context, path string) error {
	collection, key, err := Split(path)
	if err != nil {
		return err
	}
	return s.write(ctx, Change{Collection: collection, Key: key, Op: OpRemove}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND key=$2`, collection, key)
		return err
	})
}

func (s *PGStore) write(ctx context.Context, change Change, apply func(pgx.Tx) error) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := apply(tx); err != nil {
		return fmt.Errorf("%s %s: %w", change.Op, change.Path(), err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", change.Path(), err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Subscribe(ctx context.Context, collections ...string) (<-chan Change, error) {
	if s.listener == nil {
		return nil, errors.New("docstore: postgres store has no listener configured")
	}
	if len(collections) == 0 {
		return nil, fmt.Errorf("%w: no collections to subscribe", ErrInvalidPath)
	}
	wanted := make(map[string]bool, len(collections))
	for _, c := range collections {
		if err := validCollection(c); err != nil {
			return nil, err
		}
		wanted[c] = true
	}

	payloads, err := s.listener.Listen(ctx, s.channel)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for payload := range payloads {
			var change Change
			if err := json.Unmarshal([]byte(payload), &change); err != nil || !wanted[change.Collection] {
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// PoolListener holds one pooled connection in LISTEN mode per subscription.
type PoolListener struct {
	pool *pgxpool.Pool
}

func NewPoolListener(pool *pgxpool.Pool) *PoolListener {
	return &PoolListener{pool: pool}
}

func (l *PoolListener) Listen(ctx context.Context, channel string) (<-chan string, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer func() {
			// a connection left in LISTEN mode must not go back to the pool
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			select {
			case out <- n.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

var _ Store = (*PGStore)(nil)
