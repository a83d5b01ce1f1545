package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skinbridge/backend/internal/models"
)

var (
	// ErrNotFound — записи для запрошенного кошелька нет.
	ErrNotFound = errors.New("user link not found")
	// ErrSteamIDLinked — этот Steam аккаунт уже привязан к другому кошельку.
	ErrSteamIDLinked = errors.New("steam account already linked to another wallet")
	// ErrWalletLinked — у кошелька уже привязан другой Steam аккаунт.
	ErrWalletLinked = errors.New("wallet already linked to a different steam account")
)

const userLinkColumns = `wallet_address, steam_id, steam_username, steam_avatar, steam_profile_url, trade_url, created_at, updated_at`

type UserLinkRepo struct {
	pool *pgxpool.Pool
}

func NewUserLinkRepo(pool *pgxpool.Pool) *UserLinkRepo {
	return &UserLinkRepo{pool: pool}
}

func (r *UserLinkRepo) GetByWallet(ctx context.Context, wallet string) (*models.UserLink, error) {
	var u models.UserLink
	err := r.pool.QueryRow(ctx, `
		SELECT `+userLinkColumns+`
		FROM user_links WHERE wallet_address = $1
	`, wallet).Scan(
		&u.WalletAddress, &u.SteamID, &u.SteamUsername, &u.SteamAvatar,
		&u.SteamProfileURL, &u.TradeURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserLinkRepo) GetBySteamID(ctx context.Context, steamID string) (*models.UserLink, error) {
	var u models.UserLink
	err := r.pool.QueryRow(ctx, `
		SELECT `+userLinkColumns+`
		FROM user_links WHERE steam_id = $1
	`, steamID).Scan(
		&u.WalletAddress, &u.SteamID, &u.SteamUsername, &u.SteamAvatar,
		&u.SteamProfileURL, &u.TradeURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertLink привязывает Steam аккаунт к кошельку одним условным upsert'ом.
// Повторная привязка той же пары идемпотентна; попытка заменить уже
// привязанный steam_id не проходит условие WHERE и возвращает
// ErrWalletLinked; уникальный индекс по steam_id ловит привязку к чужому
// кошельку (ErrSteamIDLinked). Отдельного окна read-then-write нет.
func (r *UserLinkRepo) UpsertLink(ctx context.Context, wallet, steamID string, username, avatar, profileURL *string) (*models.UserLink, error) {
	var u models.UserLink
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_links (wallet_address, steam_id, steam_username, steam_avatar, steam_profile_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet_address) DO UPDATE SET
			steam_id = EXCLUDED.steam_id,
			steam_username = EXCLUDED.steam_username,
			steam_avatar = EXCLUDED.steam_avatar,
			steam_profile_url = EXCLUDED.steam_profile_url,
			updated_at = now()
		WHERE user_links.steam_id IS NULL OR user_links.steam_id = EXCLUDED.steam_id
		RETURNING `+userLinkColumns+`
	`, wallet, steamID, username, avatar, profileURL).Scan(
		&u.WalletAddress, &u.SteamID, &u.SteamUsername, &u.SteamAvatar,
		&u.SteamProfileURL, &u.TradeURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// условие WHERE не прошло: у кошелька другой steam_id
		return nil, ErrWalletLinked
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrSteamIDLinked
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertTradeURL сохраняет trade URL; создаёт голую запись, если кошелёк
// ещё не привязывал Steam. Identity-поля не трогает.
func (r *UserLinkRepo) UpsertTradeURL(ctx context.Context, wallet, tradeURL string) (*models.UserLink, error) {
	var u models.UserLink
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_links (wallet_address, trade_url)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET
			trade_url = EXCLUDED.trade_url,
			updated_at = now()
		RETURNING `+userLinkColumns+`
	`, wallet, tradeURL).Scan(
		&u.WalletAddress, &u.SteamID, &u.SteamUsername, &u.SteamAvatar,
		&u.SteamProfileURL, &u.TradeURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetTradeURL возвращает trade URL кошелька. ErrNotFound — записи нет
// вовсе; nil без ошибки — запись есть, но URL не сохранён.
func (r *UserLinkRepo) GetTradeURL(ctx context.Context, wallet string) (*string, error) {
	var tradeURL *string
	err := r.pool.QueryRow(ctx, `
		SELECT trade_url FROM user_links WHERE wallet_address = $1
	`, wallet).Scan(&tradeURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tradeURL, nil
}
