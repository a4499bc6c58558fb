package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/http/httputil"
	"github.com/hxuan190/compound-engine/internal/http/middlewares"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

type RewardHandler struct {
	strategySvc *strategy.Service
}

func NewRewardHandler(strategySvc *strategy.Service) *RewardHandler {
	return &RewardHandler{strategySvc: strategySvc}
}

func (h *RewardHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:staker", h.getRewardInfos)

	admin.POST("/bond", h.bond)
	admin.POST("/unbond", h.unbond)
	admin.POST("/withdraw", h.withdraw)
}

func (h *RewardHandler) Root() string {
	return "/rewards"
}

// height reads the optional height query parameter, defaulting to the current unix time.
func (h *RewardHandler) height(raw string) (uint64, error) {
	if raw == "" {
		return uint64(h.strategySvc.Now().Unix()), nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// @Summary Staker positions
// @Description Every position of the staker with the rewards a withdrawal at height would pay out.
// @Tags rewards
// @Produce json
// @Param staker path string true "Staker address"
// @Param height query int false "Unix time the vesting schedule is evaluated at. Default: now"
// @Success 200 {object} httputil.Response{data=[]PositionView}
// @Failure 400 {object} httputil.Response
// @Router /api/v1/rewards/{staker} [get]
func (h *RewardHandler) getRewardInfos(c *gin.Context) {
	height, err := h.height(c.Query("height"))
	if err != nil {
		httputil.BadRequest(c, "invalid height")
		return
	}
	positions, err := h.strategySvc.RewardInfos(c.Request.Context(), c.Param("staker"), height)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, positionViews(positions))
}

type BondRequest struct {
	Asset  string `json:"asset" binding:"required" example:"terra1lptoken"`
	Amount string `json:"amount" binding:"required" example:"1000000"`
	// CompoundRate is the part of the bond that auto-compounds, between 0 and 1.
	CompoundRate string `json:"compound_rate" example:"0.5"`
}

// @Summary Bond
// @Description Records LP tokens deposited by the caller. Returns the actions that stake them.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Staker address"
// @Param request body BondRequest true "Bond"
// @Success 200 {object} httputil.Response{data=[]ActionView}
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/admin/rewards/bond [post]
func (h *RewardHandler) bond(c *gin.Context) {
	var req BondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	amount, err := fixedpoint.ParseAmount(req.Amount)
	if err != nil {
		httputil.BadRequest(c, "invalid amount: "+err.Error())
		return
	}
	rate := fixedpoint.ZeroDecimal()
	if req.CompoundRate != "" {
		if rate, err = fixedpoint.ParseDecimal(req.CompoundRate); err != nil {
			httputil.BadRequest(c, "invalid compound_rate: "+err.Error())
			return
		}
	}

	actions, err := h.strategySvc.Bond(c.Request.Context(), middlewares.Caller(c), req.Asset, amount, rate)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, actionViews(actions))
}

type UnbondRequest struct {
	Asset  string `json:"asset" binding:"required" example:"terra1lptoken"`
	Amount string `json:"amount" binding:"required" example:"1000000"`
}

// @Summary Unbond
// @Description Releases LP tokens of the caller. Returns the actions that unstake and return them.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Staker address"
// @Param request body UnbondRequest true "Unbond"
// @Success 200 {object} httputil.Response{data=[]ActionView}
// @Failure 400 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/admin/rewards/unbond [post]
func (h *RewardHandler) unbond(c *gin.Context) {
	var req UnbondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	amount, err := fixedpoint.ParseAmount(req.Amount)
	if err != nil {
		httputil.BadRequest(c, "invalid amount: "+err.Error())
		return
	}

	actions, err := h.strategySvc.Unbond(c.Request.Context(), middlewares.Caller(c), req.Asset, amount)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, actionViews(actions))
}

type WithdrawRequest struct {
	// Asset limits the withdrawal to one pool. Empty withdraws from every pool.
	Asset  string `json:"asset" example:"terra1lptoken"`
	Height string `json:"height" example:"1700000000"`
}

// @Summary Withdraw rewards
// @Description Pays out the caller's farm and vested governance rewards.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Param X-Caller header string true "Staker address"
// @Param request body WithdrawRequest true "Withdraw"
// @Success 200 {object} httputil.Response{data=WithdrawalView}
// @Failure 404 {object} httputil.Response
// @Router /api/v1/admin/rewards/withdraw [post]
func (h *RewardHandler) withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	height, err := h.height(req.Height)
	if err != nil {
		httputil.BadRequest(c, "invalid height")
		return
	}

	w, err := h.strategySvc.Withdraw(c.Request.Context(), middlewares.Caller(c), req.Asset, height)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, withdrawalView(w))
}
