package models

import "time"

// UserLink — одна строка на кошелёк: привязка wallet ↔ Steam аккаунт + trade URL.
type UserLink struct {
	WalletAddress   string    `json:"wallet_address"`
	SteamID         *string   `json:"steam_id,omitempty"`
	SteamUsername   *string   `json:"steam_username,omitempty"`
	SteamAvatar     *string   `json:"steam_avatar,omitempty"`
	SteamProfileURL *string   `json:"steam_profile_url,omitempty"`
	TradeURL        *string   `json:"trade_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SteamLinked reports whether the record carries a linked Steam identity.
func (u *UserLink) SteamLinked() bool {
	return u != nil && u.SteamID != nil && *u.SteamID != ""
}

// HasTradeURL reports whether a trade URL has been saved.
func (u *UserLink) HasTradeURL() bool {
	return u != nil && u.TradeURL != nil && *u.TradeURL != ""
}
