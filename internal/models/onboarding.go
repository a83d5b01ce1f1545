package models

// Onboarding steps, linear: connect wallet → link steam → set trade url → complete.
const (
	StepConnectWallet = "connect_wallet"
	StepLinkSteam     = "link_steam"
	StepSetTradeURL   = "set_trade_url"
	StepComplete      = "complete"
)

// LinkState — загружено ли состояние привязки из хранилища.
// Known=false означает "ещё не знаем", а не "записи нет": до первой
// загрузки шаг не должен уходить дальше connect_wallet.
type LinkState struct {
	Known  bool
	Record *UserLink
}

// DeriveStep вычисляет текущий шаг онбординга. Чистая функция от
// (подключён ли кошелёк, состояние привязки) — шаг нигде не хранится.
func DeriveStep(walletConnected bool, ls LinkState) string {
	if !walletConnected {
		return StepConnectWallet
	}
	if !ls.Known {
		// loading gate: данные ещё не загружены
		return StepConnectWallet
	}
	if !ls.Record.SteamLinked() {
		return StepLinkSteam
	}
	if !ls.Record.HasTradeURL() {
		return StepSetTradeURL
	}
	return StepComplete
}
