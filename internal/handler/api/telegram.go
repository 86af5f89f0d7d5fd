package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"SignalDesk/internal/command"
	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/journal"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TelegramHandler receives bot webhook updates: chart photos go through
// the vision flow, text goes to the command interpreter first and falls
// back to free-form signal extraction. The webhook always acknowledges
// with 200 so Telegram does not redeliver.
type TelegramHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	journal  *journal.Store
	notifier repository.Notifier
}

func NewTelegramHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, store *journal.Store, notifier repository.Notifier) *TelegramHandler {
	return &TelegramHandler{logger: logger, pipeline: pipeline, journal: store, notifier: notifier}
}

func (h *TelegramHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/tg-webhook", h.Webhook)
}

func (h *TelegramHandler) Webhook(c echo.Context) error {
	update := &models.TelegramUpdate{}
	if err := c.Bind(update); err != nil {
		h.logger.Warn("telegram webhook bind failed", xlogger.Error(err))
		return xhttp.SuccessResponse(c, map[string]bool{"ok": true})
	}

	msg := update.Message
	if msg == nil {
		return xhttp.SuccessResponse(c, map[string]bool{"ok": true})
	}

	ctx := c.Request().Context()
	switch {
	case len(msg.Photo) > 0:
		h.handlePhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		h.handleText(ctx, msg)
	}

	return xhttp.SuccessResponse(c, map[string]bool{"ok": true})
}

func (h *TelegramHandler) handlePhoto(ctx context.Context, msg *models.TelegramMessage) {
	// Telegram lists sizes smallest first.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	url, err := h.notifier.FileURL(ctx, fileID)
	if err != nil {
		h.logger.Error("photo url resolution failed", xlogger.Error(err))
		h.reply(ctx, msg.Chat.ID, "Could not fetch that chart, try again.")
		return
	}

	decision, err := h.pipeline.ProcessImage(ctx, url, msg.Caption)
	if err != nil {
		h.logger.Error("chart analysis failed", xlogger.Error(err))
		h.reply(ctx, msg.Chat.ID, "Chart analysis failed.")
		return
	}
	h.reply(ctx, msg.Chat.ID, usecase.FormatChartAlert(decision))
}

func (h *TelegramHandler) handleText(ctx context.Context, msg *models.TelegramMessage) {
	text := strings.TrimSpace(msg.Text)

	cmd, err := command.Parse(text)
	switch {
	case err == nil:
		h.handleCommand(ctx, msg.Chat.ID, cmd)
	case errors.Is(err, command.ErrNotCommand):
		h.handleFreeText(ctx, msg.Chat.ID, text)
	default:
		h.reply(ctx, msg.Chat.ID, "Bad command: "+err.Error())
	}
}

func (h *TelegramHandler) handleCommand(ctx context.Context, chatID int64, cmd command.Command) {
	entry, err := h.journal.ApplyCommand(ctx, cmd)
	if err != nil {
		h.reply(ctx, chatID, commandErrorText(err))
		return
	}
	h.reply(ctx, chatID, usecase.FormatEntryStatus(entry))
}

func (h *TelegramHandler) handleFreeText(ctx context.Context, chatID int64, text string) {
	sig, ok := extractSignal(text)
	if !ok {
		h.reply(ctx, chatID, "Send a chart photo, a command (tp1/tp2/sl/fill/exit/cancel/status), or: SYMBOL TF SETUP PRICE")
		return
	}

	res, err := h.pipeline.Process(ctx, sig, "telegram")
	if err != nil {
		h.logger.Error("telegram signal failed", xlogger.Error(err))
		h.reply(ctx, chatID, "Signal processing failed.")
		return
	}
	if !res.Admitted {
		h.reply(ctx, chatID, fmt.Sprintf("Rejected: %s %s", res.Reason, res.Detail))
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("Admitted as <code>%s</code>: %s", res.TradeID, res.Decision.Decision))
}

func (h *TelegramHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.notifier.Reply(ctx, chatID, text); err != nil {
		h.logger.Warn("telegram reply failed", xlogger.Error(err))
	}
}

func commandErrorText(err error) string {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		return "Unknown trade id."
	case errors.Is(err, journal.ErrTerminal):
		return "That trade is already closed."
	case errors.Is(err, journal.ErrAlreadyFilled):
		return "Already filled at a different price."
	default:
		return "Journal update failed, try again."
	}
}

// extractSignal reads "SYMBOL TF SETUP PRICE context..." free text, with
// an optional /signal, /gpt or /analyze prefix.
func extractSignal(text string) (*models.SignalDescriptor, bool) {
	for _, prefix := range []string{"/signal", "/gpt", "/analyze", "signal"} {
		if strings.HasPrefix(strings.ToLower(text), prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, false
	}

	sig := &models.SignalDescriptor{Symbol: fields[0]}
	if len(fields) > 1 {
		sig.Timeframe = fields[1]
	}
	if len(fields) > 2 {
		sig.Setup = strings.ToLower(fields[2])
	}
	if len(fields) > 3 {
		if v, ok := parsePrice(fields[3]); ok {
			sig.Close = models.Float(v)
		}
	}
	if len(fields) > 4 {
		sig.Context = strings.Join(fields[4:], " ")
	}

	// A bare word is not a signal; require at least symbol + timeframe.
	if len(fields) < 2 {
		return nil, false
	}
	return sig, true
}

func parsePrice(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
