package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Get(ctx context.Context, draftID string, field Field) (json.RawMessage, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT value FROM drafts
		WHERE draft_id = $1 AND field = $2 AND version = $3
	`, draftID, string(field), Version)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// черновика ещё нет или он другой версии
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get draft %s/%s: %w", draftID, field, err)
	}
	return raw, true, nil
}

func (r *Repo) Set(ctx context.Context, draftID string, field Field, value any) error {
	raw, err := encode(field, value)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO drafts (draft_id, field, version, value, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (draft_id, field) DO UPDATE SET
		  version=$3, value=$4, updated_at=now()
	`, draftID, string(field), Version, []byte(raw))
	if err != nil {
		return fmt.Errorf("set draft %s/%s: %w", draftID, field, err)
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, draftID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM drafts WHERE draft_id = $1`, draftID); err != nil {
		return fmt.Errorf("clear draft %s: %w", draftID, err)
	}
	return nil
}
