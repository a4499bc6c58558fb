package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/compound-engine/internal/http/httputil"
	"github.com/hxuan190/compound-engine/internal/http/middlewares"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

type StrategyHandler struct {
	strategySvc *strategy.Service
}

func NewStrategyHandler(strategySvc *strategy.Service) *StrategyHandler {
	return &StrategyHandler{strategySvc: strategySvc}
}

func (h *StrategyHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/state", h.getState)
	pub.GET("/cycles", h.getCycles)

	admin.POST("/compound", h.compoundAll)
}

func (h *StrategyHandler) Root() string {
	return "/strategy"
}

// @Summary Strategy state
// @Description Global ledger state: total weight, governance share index and undistributed earnings.
// @Tags strategy
// @Produce json
// @Success 200 {object} httputil.Response{data=StateView}
// @Router /api/v1/strategy/state [get]
func (h *StrategyHandler) getState(c *gin.Context) {
	httputil.Success(c, stateView(h.strategySvc.State()))
}

// @Summary Last compound cycles
// @Description The most recent compound cycle of every pool since the service started.
// @Tags strategy
// @Produce json
// @Success 200 {object} httputil.Response{data=[]CompoundView}
// @Router /api/v1/strategy/cycles [get]
func (h *StrategyHandler) getCycles(c *gin.Context) {
	cycles := h.strategySvc.LastCycles()
	out := make([]CompoundView, len(cycles))
	for i, r := range cycles {
		out[i] = compoundView(r)
	}
	httputil.Success(c, out)
}

type CompoundAllResponse struct {
	Results []CompoundView `json:"results"`
	// Errors lists the pools whose cycle failed.
	Errors []string `json:"errors,omitempty"`
}

// @Summary Compound every pool
// @Description Runs a compound cycle on every pool. A failing pool does not stop the others. Controller only.
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Address the call acts as"
// @Success 200 {object} httputil.Response{data=CompoundAllResponse}
// @Router /api/v1/admin/strategy/compound [post]
func (h *StrategyHandler) compoundAll(c *gin.Context) {
	results, err := h.strategySvc.CompoundAll(c.Request.Context(), middlewares.Caller(c))
	resp := CompoundAllResponse{Results: make([]CompoundView, len(results))}
	for i, r := range results {
		resp.Results[i] = compoundView(r)
	}
	if err != nil {
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				resp.Errors = append(resp.Errors, e.Error())
			}
		} else {
			resp.Errors = []string{err.Error()}
		}
	}
	httputil.Success(c, resp)
}
