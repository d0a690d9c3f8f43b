package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const documentID = "default"

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		body       JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

var psqlDocument = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// postgresDocumentRepo keeps the whole document in a single JSONB row.
// Each write replaces one top-level key in one statement.
type postgresDocumentRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresDocumentRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresDocumentRepo{db: db, logger: logger}
}

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, documentsSchema); err != nil {
		return apperror.NewInternal("failed to create documents table", err)
	}
	return nil
}

func (r *postgresDocumentRepo) Get(ctx context.Context) (*profile.Document, error) {
	query, args, err := psqlDocument.Select("body").
		From("documents").
		Where(sq.Eq{"id": documentID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build document query", err)
	}

	var body []byte
	if err := r.db.QueryRow(ctx, query, args...).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.NewDocument(), nil
		}
		return nil, apperror.NewInternal("failed to query document", err)
	}

	doc, err := profile.ParseDocument(body)
	if err != nil {
		return nil, apperror.NewInternal("stored document is malformed", err)
	}
	return doc, nil
}

func (r *postgresDocumentRepo) AdminPinHash(ctx context.Context) (string, error) {
	doc, err := r.Get(ctx)
	if err != nil {
		return "", err
	}
	return doc.AdminPinHash(), nil
}

func (r *postgresDocumentRepo) ReplaceProfile(ctx context.Context, p profile.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return apperror.NewInternal("failed to marshal profile", err)
	}
	return r.setKey(ctx, profile.KeyProfile, raw)
}

func (r *postgresDocumentRepo) SetAdminPinHash(ctx context.Context, hash string) error {
	raw, err := json.Marshal(hash)
	if err != nil {
		return apperror.NewInternal("failed to marshal admin pin", err)
	}
	return r.setKey(ctx, profile.KeyAdminPin, raw)
}

// setKey upserts the row, replacing key and leaving every other key as is.
func (r *postgresDocumentRepo) setKey(ctx context.Context, key string, raw json.RawMessage) error {
	query, args, err := psqlDocument.Insert("documents").
		Columns("id", "body", "updated_at").
		Values(documentID, sq.Expr("jsonb_build_object(?::text, ?::jsonb)", key, string(raw)), sq.Expr("NOW()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET body = documents.body || EXCLUDED.body, updated_at = NOW()").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build document upsert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to write document", err)
	}
	return nil
}
