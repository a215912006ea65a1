package console

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var _ Storage = (*BunStorage)(nil)

// KVRecord is the single durable table this console owns: one serialized
// blob per key, scoped by the storage key the session store is configured
// with.
type KVRecord struct {
	bun.BaseModel `bun:"table:console_kv,alias:kv"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         []byte     `bun:"value,notnull" json:"value"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunStorage persists key-value blobs through bun, normally on sqlite.
type BunStorage struct {
	db *bun.DB
}

func NewBunStorage(db *bun.DB) *BunStorage {
	return &BunStorage{db: db}
}

// Init creates the backing table. Called once at startup; safe to repeat.
func (s *BunStorage) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*KVRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *BunStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	record := new(KVRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record.Value, true, nil
}

func (s *BunStorage) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	record := &KVRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: &now,
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *BunStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*KVRecord)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}
