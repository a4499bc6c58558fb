package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/compound-engine/internal/adapters/wasm"
	"github.com/hxuan190/compound-engine/internal/common"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/http/httputil"
	"github.com/hxuan190/compound-engine/internal/services/compound"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

// toHTTPError maps a service error onto the response it is reported as.
func toHTTPError(err error) *common.HttpError {
	if e, ok := common.AsHTTPError(err); ok {
		return e
	}
	msg := err.Error()
	switch {
	case errors.Is(err, compound.ErrUnauthorized):
		return common.HTTPErrorUnauthorized(msg)
	case errors.Is(err, ledger.ErrPoolNotFound), errors.Is(err, ledger.ErrRewardNotFound):
		return common.HTTPErrorNotFound(msg)
	case errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrInvalidCompoundRate),
		errors.Is(err, farm.ErrUnsupportedFarm):
		return common.HTTPErrorBadRequest(msg)
	case errors.Is(err, ledger.ErrExceedsBond),
		errors.Is(err, compound.ErrNoRoute),
		errors.Is(err, swap.ErrEmptyReserves),
		errors.Is(err, swap.ErrUnknownAsset),
		fixedpoint.IsArithmetic(err):
		return common.HTTPErrorUnprocessable(msg)
	case errors.Is(err, wasm.ErrQueryFailed):
		return common.HTTPErrorInternalError("chain query failed: " + msg)
	}
	return common.HTTPErrorInternalError(msg)
}

func writeError(c *gin.Context, err error) {
	e := toHTTPError(err)
	if e.StatusCode >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	httputil.Fail(c, e)
}
