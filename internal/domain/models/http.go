package models

// SignalRequest is the direct API signal body (POST /api/signal).
type SignalRequest struct {
	Symbol  string  `json:"symbol" validate:"required,min=3,max=20"`
	TF      string  `json:"tf" default:"15m"`
	Setup   string  `json:"setup" default:"neutral"`
	Price   float64 `json:"price"`
	RiskPct float64 `json:"risk_pct" validate:"gte=0,lte=100"`
	Context string  `json:"context"`
	TradeID string  `json:"trade_id"`
}

// TVAlertRequest is the TradingView webhook body (POST /api/tv-alert).
// Context carries "TF=15m;setup=strong_long;close=68123.5" style pairs.
type TVAlertRequest struct {
	Secret  string `json:"secret" validate:"required"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// CommandRequest applies a lifecycle command (POST /api/journal/command).
type CommandRequest struct {
	Text string `json:"text" validate:"required"`
}

// JournalQuery selects the most recent journal entries.
type JournalQuery struct {
	N int `query:"n" default:"20" validate:"gte=0,lte=1000"`
}

// TelegramUpdate mirrors the subset of the Telegram Bot API update payload
// the webhook cares about.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	Chat    TelegramChat    `json:"chat"`
	Text    string          `json:"text"`
	Caption string          `json:"caption"`
	Photo   []TelegramPhoto `json:"photo"`
}

type TelegramChat struct {
	ID int64 `json:"id"`
}

type TelegramPhoto struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
}
