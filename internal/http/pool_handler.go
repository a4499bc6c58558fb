package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/http/httputil"
	"github.com/hxuan190/compound-engine/internal/http/middlewares"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

type PoolHandler struct {
	strategySvc *strategy.Service
}

func NewPoolHandler(strategySvc *strategy.Service) *PoolHandler {
	return &PoolHandler{strategySvc: strategySvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPools)
	pub.GET("/:asset", h.getPool)

	admin.POST("", h.registerPool)
	admin.POST("/:asset/compound", h.compound)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// @Summary List pools
// @Description Every registered pool with its share totals and reward indices.
// @Tags pools
// @Produce json
// @Success 200 {object} httputil.Response{data=[]PoolView}
// @Router /api/v1/pools [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	pools := h.strategySvc.Pools()
	out := make([]PoolView, len(pools))
	for i, p := range pools {
		out[i] = poolView(p)
	}
	httputil.Success(c, out)
}

// @Summary Get pool
// @Tags pools
// @Produce json
// @Param asset path string true "LP token address"
// @Success 200 {object} httputil.Response{data=PoolView}
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pools/{asset} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	pool, err := h.strategySvc.Pool(c.Param("asset"))
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, poolView(pool))
}

type RegisterPoolRequest struct {
	Asset    string `json:"asset" binding:"required" example:"terra1lptoken"`
	Pair     string `json:"pair" binding:"required" example:"terra1pair"`
	FarmKind string `json:"farm_kind" binding:"required" enums:"staking,generator" example:"generator"`
	Weight   uint32 `json:"weight" example:"1"`
}

// @Summary Register pool
// @Description Adds a pool or changes its weight. Every pool is settled first. Owner only.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Address the call acts as"
// @Param request body RegisterPoolRequest true "Pool"
// @Success 200 {object} httputil.Response{data=PoolView}
// @Failure 400 {object} httputil.Response
// @Failure 401 {object} httputil.Response
// @Router /api/v1/admin/pools [post]
func (h *PoolHandler) registerPool(c *gin.Context) {
	var req RegisterPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	kind, ok := domain.ParseFarmKind(req.FarmKind)
	if !ok {
		httputil.BadRequest(c, "unknown farm kind "+req.FarmKind)
		return
	}

	pool := domain.NewPoolInfo(req.Asset, req.Pair, kind, req.Weight)
	if err := h.strategySvc.RegisterPool(c.Request.Context(), middlewares.Caller(c), pool); err != nil {
		writeError(c, err)
		return
	}
	registered, err := h.strategySvc.Pool(req.Asset)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, poolView(registered))
}

// @Summary Compound pool
// @Description Runs one compound cycle on the pool and returns the actions to dispatch. Controller only.
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Address the call acts as"
// @Param asset path string true "LP token address"
// @Success 200 {object} httputil.Response{data=CompoundView}
// @Failure 401 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/admin/pools/{asset}/compound [post]
func (h *PoolHandler) compound(c *gin.Context) {
	result, err := h.strategySvc.Compound(c.Request.Context(), middlewares.Caller(c), c.Param("asset"))
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, compoundView(result))
}
