package dto

type LinkRequest struct {
	WalletAddress   string  `json:"wallet_address"`
	SteamID         string  `json:"steam_id"`
	SteamUsername   string  `json:"steam_username"`
	SteamAvatar     *string `json:"steam_avatar"`
	SteamProfileURL *string `json:"steam_profile_url"`
}

type TradeURLRequest struct {
	WalletAddress string `json:"wallet_address"`
	TradeURL      string `json:"trade_url"`
}
