package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skinbridge/backend/internal/models"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (wallet_address, action, meta)
		VALUES ($1, $2, $3)
	`, entry.WalletAddress, entry.Action, entry.Meta)
	return err
}

func (r *AuditRepo) GetByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, wallet_address, action, meta, created_at
		FROM audit_log WHERE wallet_address = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, wallet, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.WalletAddress, &l.Action, &l.Meta, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
