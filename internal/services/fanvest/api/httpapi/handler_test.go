package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/louisbranch/fanvest/internal/services/fanvest/app"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
)

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type apiFixture struct {
	server *httptest.Server
	clock  *clockwork.FakeClock
}

func newFixture(t *testing.T, opts Options) *apiFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	protocol, err := app.New(context.Background(), app.Options{
		InstanceID:          "api-test",
		Owner:               "owner",
		Entity:              "club",
		Governance:          governance.DefaultConfig(),
		BeneficiaryShareBps: 5_000,
		AutoOpenVotes:       true,
		Venue:               liquidity.NewMemory("pool"),
		Clock:               clock,
		Logger:              logger,
	})
	require.NoError(t, err)
	opts.Protocol = protocol
	opts.Logger = logger
	server := httptest.NewServer(NewHandler(opts))
	t.Cleanup(server.Close)
	return &apiFixture{server: server, clock: clock}
}

func (f *apiFixture) do(t *testing.T, method, path, account string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set(AccountHeader, account)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *apiFixture) ok(t *testing.T, method, path, account string, body any, out any) {
	t.Helper()
	resp, data := f.do(t, method, path, account, body)
	require.Less(t, resp.StatusCode, 300, "%s %s: %s", method, path, data)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out))
	}
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, Options{})
	resp, data := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestMutationsRequireCaller(t *testing.T) {
	f := newFixture(t, Options{})
	resp, data := f.do(t, http.MethodPost, "/api/raise/claim", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, data).Code)
}

func TestRejectionIsLocalized(t *testing.T) {
	f := newFixture(t, Options{})
	resp, data := f.do(t, http.MethodPost, "/api/raise/contributions", "alice", amountRequest{Amount: 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decodeError(t, data)
	assert.Equal(t, "RAISE_NOT_CONFIGURED", got.Code)
	assert.Equal(t, "The raise has not been configured yet.", got.Message)
	assert.Equal(t, "state", got.Category)
	assert.Equal(t, "never", got.Retry)
}

func TestUnknownBodyFieldsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	resp, data := f.do(t, http.MethodPost, "/api/governance/delegate", "alice", map[string]string{"delegate": "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, data).Code)
}

func TestBearerAuth(t *testing.T) {
	const secret = "test-secret"
	f := newFixture(t, Options{AuthSecret: secret})
	sign := func(key string, sub string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte(key))
		require.NoError(t, err)
		return signed
	}
	call := func(token string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/raise/claim", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, data
	}

	resp, data := call(sign(secret, "alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "RAISE_NOT_FINALIZED", decodeError(t, data).Code)

	resp, _ = call(sign("other-secret", "alice"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The header is ignored once tokens are required.
	resp, _ = f.do(t, http.MethodPost, "/api/raise/claim", "alice", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimitedCallerGets429(t *testing.T) {
	f := newFixture(t, Options{Limiter: NewRateLimiter(rate.Every(time.Hour), 1)})
	resp, _ := f.do(t, http.MethodGet, "/api/raise", "alice", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := f.do(t, http.MethodGet, "/api/raise", "alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	var body RateLimitError
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "rate_limit_exceeded", body.Error)

	resp, _ = f.do(t, http.MethodGet, "/api/raise", "bob", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFundraiseFlowOverHTTP(t *testing.T) {
	f := newFixture(t, Options{})
	contributors := []string{"alice", "bob", "carol"}

	f.ok(t, http.MethodPost, "/api/raise/configure", "owner", map[string]any{
		"target":           300,
		"price":            100_000,
		"min_contribution": 10,
		"max_contribution": 150,
		"start":            start.Add(time.Hour),
		"end":              start.Add(48 * time.Hour),
	}, nil)
	for _, account := range contributors {
		f.ok(t, http.MethodPost, "/api/admin/capital/deposit", "owner", depositRequest{Account: ledger.Account(account), Amount: 100}, nil)
	}
	f.clock.Advance(time.Hour)
	for _, account := range contributors {
		f.ok(t, http.MethodPost, "/api/raise/contributions", account, amountRequest{Amount: 100}, nil)
	}

	var view app.RaiseView
	f.ok(t, http.MethodGet, "/api/raise", "", nil, &view)
	assert.Equal(t, "finalized", string(view.Status))
	require.NotNil(t, view.Split)
	assert.Equal(t, uint64(60), view.Split.Immediate)

	for _, account := range contributors {
		var claimed amountResponse
		f.ok(t, http.MethodPost, "/api/raise/claim", account, nil, &claimed)
		assert.Equal(t, uint64(1_000), claimed.Amount)
	}

	var milestone struct {
		ID     uint64 `json:"id"`
		Status string `json:"status"`
		VoteID uint64 `json:"vote_id"`
	}
	f.ok(t, http.MethodPost, "/api/vesting/milestones", "owner", map[string]any{
		"title":          "Academy pitch",
		"release_amount": 50,
		"token_reward":   100,
		"deadline":       start.Add(30 * 24 * time.Hour),
	}, &milestone)
	f.ok(t, http.MethodPost, fmt.Sprintf("/api/vesting/milestones/%d/submit", milestone.ID), "club",
		submitRequest{EvidenceRef: "https://club.example/report"}, &milestone)
	assert.Equal(t, "voting", milestone.Status)
	require.NotZero(t, milestone.VoteID)

	votes := fmt.Sprintf("/api/governance/proposals/%d/votes", milestone.VoteID)
	f.ok(t, http.MethodPost, votes, "alice", voteRequest{Support: true}, nil)
	f.ok(t, http.MethodPost, votes, "bob", voteRequest{Support: true}, nil)
	resp, data := f.do(t, http.MethodPost, votes, "bob", voteRequest{Support: true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "VOTE_ALREADY_CAST", decodeError(t, data).Code)

	f.clock.Advance(7*24*time.Hour + time.Minute)
	var executed struct {
		Outcome string `json:"outcome"`
	}
	f.ok(t, http.MethodPost, fmt.Sprintf("/api/governance/proposals/%d/execute", milestone.VoteID), "carol", nil, &executed)
	assert.Equal(t, "approved", executed.Outcome)

	f.ok(t, http.MethodGet, fmt.Sprintf("/api/vesting/milestones/%d", milestone.ID), "", nil, &milestone)
	assert.Equal(t, "released", milestone.Status)

	var balance app.BalanceView
	f.ok(t, http.MethodGet, "/api/ledger/capital/club", "", nil, &balance)
	assert.Equal(t, uint64(110), balance.Balance)

	resp, data = f.do(t, http.MethodGet, "/api/ledger/shares/club", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, data).Code)
}

func TestTransferOwnershipOverHTTP(t *testing.T) {
	f := newFixture(t, Options{})
	body := map[string]string{"component": "raise", "new_owner": "label"}

	resp, data := f.do(t, http.MethodPost, "/api/admin/ownership", "owner", body)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(data))

	var view app.RaiseView
	f.ok(t, http.MethodGet, "/api/raise", "", nil, &view)
	assert.Equal(t, ledger.Account("label"), view.Owner)

	resp, data = f.do(t, http.MethodPost, "/api/admin/ownership", "owner", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, data).Code)
}
