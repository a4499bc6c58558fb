package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/adapters/wasm"
	"github.com/hxuan190/compound-engine/internal/common"
	"github.com/hxuan190/compound-engine/internal/config"
	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/services/compound"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/farm/farmtest"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

const adminKey = "secret"

type nopStore struct{}

func (nopStore) Commit(*ledger.Changes) error { return nil }

type testServer struct {
	t    *testing.T
	srv  gohttp.Handler
	farm *farmtest.Farm
}

func reserves(assetA, assetB string, a, b uint64) *farm.Reserves {
	r := &farm.Reserves{AssetA: assetA, AssetB: assetB, Fee: swap.DefaultFee}
	r.A.SetUint64(a)
	r.B.SetUint64(b)
	r.TotalShare.SetUint64(a)
	return r
}

func newTestServer(t *testing.T, key string) *testServer {
	t.Helper()
	f := farmtest.NewFarm(domain.FarmKindGenerator)
	amm := farmtest.NewAMM()
	amm.SetReserves("lp-pair", reserves(farmtest.FarmToken, "base", 1_000_000, 1_000_000))
	amm.SetReserves("gov-pair", reserves("base", farmtest.GovernanceToken, 1_000_000, 1_000_000))
	farms, err := farm.NewRegistry(f)
	require.NoError(t, err)

	svc, err := strategy.New(strategy.Deps{
		Store:      nopStore{},
		Farms:      farms,
		Governance: &farmtest.Governance{},
		AMM:        amm,
		Compound: compound.Config{
			Controller:         "controller",
			Platform:           "platform",
			CommunityFee:       fixedpoint.MustParseDecimal("0.01"),
			PlatformFee:        fixedpoint.MustParseDecimal("0.01"),
			ControllerFee:      fixedpoint.MustParseDecimal("0.01"),
			GovernanceContract: farmtest.GovernanceContract,
			ProtocolToken:      farmtest.GovernanceToken,
			ProtocolPair:       "gov-pair",
		},
		Owner: "owner",
		Pools: []*domain.PoolInfo{domain.NewPoolInfo("lp", "lp-pair", domain.FarmKindGenerator, 1)},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	h := NewHTTPService(&config.GeneralConfig{HTTPHost: "localhost", HTTPPort: "0", Env: "dev", AdminKey: key}, svc)
	return &testServer{t: t, srv: h.Router(), farm: f}
}

func (s *testServer) do(method, path, caller string, body any) (int, httpResponse) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(common.AdminKeyHeader, adminKey)
		req.Header.Set(common.CallerHeader, caller)
	}
	w := httptest.NewRecorder()
	s.srv.ServeHTTP(w, req)

	var resp httpResponse
	require.NoError(s.t, sonic.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

type httpResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(raw, &v))
	return v
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, adminKey)

	code, resp := s.do(gohttp.MethodGet, "/api/v1/pools", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	pools := decode[[]PoolView](t, resp.Data)
	require.Len(t, pools, 1)
	require.Equal(t, "lp", pools[0].Asset)
	require.Equal(t, "generator", pools[0].FarmKind)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/pools/missing", "", nil)
	require.Equal(t, gohttp.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", resp.Code)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/strategy/state", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.Equal(t, uint32(1), decode[StateView](t, resp.Data).TotalWeight)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/rewards/nobody", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.Empty(t, decode[[]PositionView](t, resp.Data))

	code, _ = s.do(gohttp.MethodGet, "/api/v1/rewards/nobody?height=abc", "", nil)
	require.Equal(t, gohttp.StatusBadRequest, code)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t, adminKey)
	body := BondRequest{Asset: "lp", Amount: "100"}

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/admin/rewards/bond", nil)
	w := httptest.NewRecorder()
	s.srv.ServeHTTP(w, req)
	require.Equal(t, gohttp.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(gohttp.MethodPost, "/api/v1/admin/rewards/bond", nil)
	req.Header.Set(common.AdminKeyHeader, adminKey)
	w = httptest.NewRecorder()
	s.srv.ServeHTTP(w, req)
	require.Equal(t, gohttp.StatusBadRequest, w.Code)

	disabled := newTestServer(t, "")
	code, resp := disabled.do(gohttp.MethodPost, "/api/v1/admin/rewards/bond", "user1", body)
	require.Equal(t, gohttp.StatusForbidden, code)
	require.Equal(t, "FORBIDDEN", resp.Code)
}

func TestBondPreviewUnbond(t *testing.T) {
	s := newTestServer(t, adminKey)

	code, resp := s.do(gohttp.MethodPost, "/api/v1/admin/rewards/bond", "user1",
		BondRequest{Asset: "lp", Amount: "7000", CompoundRate: "0.6"})
	require.Equal(t, gohttp.StatusOK, code, resp.Error)
	require.NotEmpty(t, decode[[]ActionView](t, resp.Data))
	s.farm.SetPrincipal("lp", 7000)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/rewards/user1", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	positions := decode[[]PositionView](t, resp.Data)
	require.Len(t, positions, 1)
	require.Equal(t, "7000", positions[0].BondAmount)
	require.Equal(t, "4200", positions[0].AutoBondAmount)
	require.Equal(t, "2800", positions[0].StakeBondAmount)

	code, resp = s.do(gohttp.MethodPost, "/api/v1/admin/rewards/unbond", "user1",
		UnbondRequest{Asset: "lp", Amount: "8000"})
	require.Equal(t, gohttp.StatusUnprocessableEntity, code)
	require.Equal(t, "UNPROCESSABLE", resp.Code)

	code, _ = s.do(gohttp.MethodPost, "/api/v1/admin/rewards/bond", "user1",
		BondRequest{Asset: "lp", Amount: "-5"})
	require.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = s.do(gohttp.MethodPost, "/api/v1/admin/rewards/bond", "user1",
		BondRequest{Asset: "lp", Amount: "10", CompoundRate: "1.5"})
	require.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = s.do(gohttp.MethodPost, "/api/v1/admin/rewards/bond", "user1",
		BondRequest{Asset: "other", Amount: "10"})
	require.Equal(t, gohttp.StatusNotFound, code)
}

func TestCompoundRoutes(t *testing.T) {
	s := newTestServer(t, adminKey)

	code, resp := s.do(gohttp.MethodPost, "/api/v1/admin/pools/lp/compound", "user1", nil)
	require.Equal(t, gohttp.StatusUnauthorized, code)
	require.Equal(t, "UNAUTHORIZED", resp.Code)

	code, resp = s.do(gohttp.MethodPost, "/api/v1/admin/pools/lp/compound", "controller", nil)
	require.Equal(t, gohttp.StatusOK, code, resp.Error)
	require.Equal(t, "lp", decode[CompoundView](t, resp.Data).Asset)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/strategy/cycles", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.Len(t, decode[[]CompoundView](t, resp.Data), 1)

	code, resp = s.do(gohttp.MethodPost, "/api/v1/admin/strategy/compound", "user1", nil)
	require.Equal(t, gohttp.StatusOK, code)
	all := decode[CompoundAllResponse](t, resp.Data)
	require.Empty(t, all.Results)
	require.Len(t, all.Errors, 1)
}

func TestRegisterPoolRoute(t *testing.T) {
	s := newTestServer(t, adminKey)
	req := RegisterPoolRequest{Asset: "lp2", Pair: "lp2-pair", FarmKind: "generator", Weight: 2}

	code, _ := s.do(gohttp.MethodPost, "/api/v1/admin/pools", "user1", req)
	require.Equal(t, gohttp.StatusUnauthorized, code)

	code, _ = s.do(gohttp.MethodPost, "/api/v1/admin/pools", "owner",
		RegisterPoolRequest{Asset: "lp3", Pair: "lp3-pair", FarmKind: "lending"})
	require.Equal(t, gohttp.StatusBadRequest, code)

	code, _ = s.do(gohttp.MethodPost, "/api/v1/admin/pools", "owner",
		RegisterPoolRequest{Asset: "lp3", Pair: "lp3-pair", FarmKind: "staking"})
	require.Equal(t, gohttp.StatusBadRequest, code)

	code, resp := s.do(gohttp.MethodPost, "/api/v1/admin/pools", "owner", req)
	require.Equal(t, gohttp.StatusOK, code, resp.Error)
	require.Equal(t, uint32(2), decode[PoolView](t, resp.Data).Weight)

	code, resp = s.do(gohttp.MethodGet, "/api/v1/strategy/state", "", nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.Equal(t, uint32(3), decode[StateView](t, resp.Data).TotalWeight)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{compound.ErrUnauthorized, gohttp.StatusUnauthorized},
		{ledger.ErrRewardNotFound, gohttp.StatusNotFound},
		{ledger.ErrZeroAmount, gohttp.StatusBadRequest},
		{fixedpoint.ErrOverflow, gohttp.StatusUnprocessableEntity},
		{compound.ErrNoRoute, gohttp.StatusUnprocessableEntity},
		{farm.ErrUnsupportedFarm, gohttp.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", common.HTTPErrorResourceConflict("")), gohttp.StatusConflict},
		{errors.New("lcd unreachable"), gohttp.StatusInternalServerError},
		{fmt.Errorf("%w: 503", wasm.ErrQueryFailed), gohttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, toHTTPError(tc.err).StatusCode, tc.err.Error())
	}
}
