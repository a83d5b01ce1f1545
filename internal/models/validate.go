package models

import "regexp"

var (
	walletAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	steamIDRe       = regexp.MustCompile(`^[0-9]{17}$`)
	tradeURLRe      = regexp.MustCompile(`^https://steamcommunity\.com/tradeoffer/new/\?partner=\d+&token=[a-zA-Z0-9_-]+$`)
)

// IsValidWalletAddress проверяет формат EVM-адреса (0x + 40 hex).
func IsValidWalletAddress(addr string) bool {
	return walletAddressRe.MatchString(addr)
}

// IsValidSteamID проверяет формат SteamID64 (17 цифр).
func IsValidSteamID(id string) bool {
	return steamIDRe.MatchString(id)
}

// IsValidTradeURL проверяет формат Steam trade offer URL.
func IsValidTradeURL(u string) bool {
	return tradeURLRe.MatchString(u)
}
