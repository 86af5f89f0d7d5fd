package api

import (
	"errors"
	"strings"

	"SignalDesk/internal/command"
	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/journal"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalHandler exposes the signal intake and journal endpoints.
type SignalHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	journal  *journal.Store
	tvSecret string
	version  string
	window   int
}

func NewSignalHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline, store *journal.Store, tvSecret, version string, recentWindow int) *SignalHandler {
	return &SignalHandler{
		logger:   logger,
		pipeline: pipeline,
		journal:  store,
		tvSecret: tvSecret,
		version:  version,
		window:   recentWindow,
	}
}

func (h *SignalHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/signal", h.PostSignal)
	g.POST("/tv-alert", h.PostTVAlert)
	g.POST("/journal/command", h.PostCommand)
	g.GET("/journal", h.GetJournal)
	g.GET("/journal/export.csv", h.ExportJournal)

	e.GET("/diag", h.Diag)
	e.GET("/healthz", h.Health)
}

// PostSignal accepts a structured signal from the direct API.
func (h *SignalHandler) PostSignal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig := signalFromRequest(req)
	res, err := h.pipeline.Process(c.Request().Context(), sig, "api")
	if err != nil {
		h.logger.Error("signal pipeline error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// PostTVAlert accepts the TradingView webhook. The shared secret is
// checked before anything else runs.
func (h *SignalHandler) PostTVAlert(c echo.Context) error {
	req := &models.TVAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.tvSecret == "" || req.Secret != h.tvSecret {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("bad webhook secret"))
	}

	sig := signalFromTVAlert(req)
	res, err := h.pipeline.Process(c.Request().Context(), sig, "tradingview")
	if err != nil {
		h.logger.Error("tv-alert pipeline error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// PostCommand applies a lifecycle command like "tp1 BTCUSDT-20260831-101500 68500".
func (h *SignalHandler) PostCommand(c echo.Context) error {
	req := &models.CommandRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cmd, err := command.Parse(req.Text)
	if err != nil {
		return xhttp.AppErrorResponse(c, commandParseError(err))
	}

	entry, err := h.journal.ApplyCommand(c.Request().Context(), cmd)
	if err != nil {
		return xhttp.AppErrorResponse(c, journalError(err))
	}
	return xhttp.SuccessResponse(c, entry)
}

// GetJournal returns the n most recently updated entries.
func (h *SignalHandler) GetJournal(c echo.Context) error {
	req := &models.JournalQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n := req.N
	if h.window > 0 && (n == 0 || n > h.window) {
		n = h.window
	}
	entries := h.journal.Recent(n)
	return xhttp.ListResponse(c, entries, int64(h.journal.Len()))
}

// ExportJournal streams the full ledger as CSV.
func (h *SignalHandler) ExportJournal(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="trade_journal.csv"`)
	if err := h.journal.ExportCSV(c.Response()); err != nil {
		h.logger.Error("journal export failed", xlogger.Error(err))
		return err
	}
	return nil
}

// Diag reports runtime state for operators.
func (h *SignalHandler) Diag(c echo.Context) error {
	used, err := h.pipeline.DailyRiskUsed(c.Request().Context())
	if err != nil {
		h.logger.Warn("diag risk lookup failed", xlogger.Error(err))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"version":         h.version,
		"journal_entries": h.journal.Len(),
		"daily_risk_used": used,
	})
}

// Health is the liveness probe.
func (h *SignalHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func signalFromRequest(req *models.SignalRequest) *models.SignalDescriptor {
	sig := &models.SignalDescriptor{
		TradeID:   req.TradeID,
		Symbol:    req.Symbol,
		Timeframe: req.TF,
		Setup:     req.Setup,
		Context:   req.Context,
	}
	if req.Price > 0 {
		sig.Close = models.Float(req.Price)
	}
	if req.RiskPct > 0 {
		sig.RiskPct = models.Float(req.RiskPct)
	}
	return sig
}

// signalFromTVAlert parses "SYMBOL setup" text plus a
// "TF=15m;setup=strong_long;close=68123.5" context string.
func signalFromTVAlert(req *models.TVAlertRequest) *models.SignalDescriptor {
	sig := &models.SignalDescriptor{Context: req.Context}

	fields := strings.Fields(req.Text)
	if len(fields) > 0 {
		sig.Symbol = fields[0]
	}
	if len(fields) > 1 {
		sig.Setup = strings.ToLower(fields[1])
	}

	for _, pair := range strings.Split(req.Context, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "tf":
			sig.Timeframe = value
		case "setup":
			sig.Setup = strings.ToLower(value)
		case "close", "price":
			if v, ok := parsePrice(value); ok {
				sig.Close = models.Float(v)
			}
		case "symbol":
			sig.Symbol = value
		}
	}
	return sig
}

func commandParseError(err error) *xhttp.AppError {
	var perr *command.ParseError
	if errors.As(err, &perr) {
		return xhttp.BadRequestErrorf("bad command: %s", perr.Error())
	}
	if errors.Is(err, command.ErrNotCommand) {
		return xhttp.BadRequestError("not a journal command")
	}
	return xhttp.BadRequestError(err.Error())
}

func journalError(err error) error {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		return xhttp.NotFoundError("trade not found")
	case errors.Is(err, journal.ErrTerminal):
		return xhttp.ConflictError("trade already closed")
	case errors.Is(err, journal.ErrAlreadyFilled):
		return xhttp.ConflictError("trade already filled at a different price")
	default:
		var perr *journal.PersistError
		if errors.As(err, &perr) {
			return xhttp.InternalError("journal write failed")
		}
		return err
	}
}
