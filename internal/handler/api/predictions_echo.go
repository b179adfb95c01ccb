package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	apimetrics "StockPredict/internal/service/metrics"
	"StockPredict/internal/service/ratelimit"
	"StockPredict/internal/usecase"
	xhttp "StockPredict/pkg/http"
	xlogger "StockPredict/pkg/logger"
)

// PredictionsEchoHandler serves inline and stored-history predictions.
type PredictionsEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.PredictionService
	limiter *ratelimit.Limiter
}

func NewPredictionsEchoHandler(logger *xlogger.Logger, svc *usecase.PredictionService, limiter *ratelimit.Limiter) *PredictionsEchoHandler {
	apimetrics.Register()
	return &PredictionsEchoHandler{logger: logger, svc: svc, limiter: limiter}
}

func (h *PredictionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict, h.rateLimit("predict"))
	g.GET("/stocks", h.Stocks)
	g.GET("/stocks/:symbol/prediction", h.SymbolPrediction, h.rateLimit("symbol_prediction"))
	g.GET("/stocks/:symbol/predictions", h.Predictions)
}

// rateLimit rejects clients that exhausted their bucket and records endpoint
// latency and errors.
func (h *PredictionsEchoHandler) rateLimit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !h.limiter.Allow(c.RealIP()) {
				apimetrics.RateLimited.WithLabelValues(endpoint).Inc()
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError())
			}
			start := time.Now()
			err := next(c)
			apimetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				apimetrics.EndpointErrors.WithLabelValues(endpoint).Inc()
			}
			return err
		}
	}
}

// Predict answers with the bare {predictedPrice, confidence} object.
func (h *PredictionsEchoHandler) Predict(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unable to read request body").WithError(err))
	}
	req, err := models.ParsePredictRequest(body)
	if err != nil {
		h.logger.Debug("predict payload rejected", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InvalidPayloadError(err))
	}
	return c.JSON(http.StatusOK, h.svc.PredictPayload(c.Request().Context(), req))
}

func (h *PredictionsEchoHandler) SymbolPrediction(c echo.Context) error {
	req := &models.SymbolPredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.PredictSymbol(c.Request().Context(), req.Symbol, req.DaysAhead, req.Lookback)
	if err != nil {
		return h.fail(c, "symbol prediction usecase error", req.Symbol, err)
	}
	return xhttp.SuccessResponse(c, res.Response())
}

func (h *PredictionsEchoHandler) Predictions(c echo.Context) error {
	req := &models.PredictionsListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.svc.Predictions(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "predictions usecase error", req.Symbol, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PredictionsEchoHandler) Stocks(c echo.Context) error {
	stocks, err := h.svc.Stocks(c.Request().Context())
	if err != nil {
		return h.fail(c, "stocks usecase error", "", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, stocks, int64(len(stocks)))
}

func (h *PredictionsEchoHandler) fail(c echo.Context, msg, symbol string, err error) error {
	if errors.Is(err, domrepo.ErrStockNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("stock %s not found", symbol).WithParam("symbol", symbol))
	}
	h.logger.Error(msg, xlogger.String("symbol", symbol), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("prediction failed").WithError(err))
}

var _ xhttp.Handler = (*PredictionsEchoHandler)(nil)
