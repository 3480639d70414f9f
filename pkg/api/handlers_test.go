package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/models"
	"github.com/intentswap/settler/pkg/quote"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.MemoryLedger) {
	t.Helper()
	led := ledger.NewMemoryLedger()
	srv := httptest.NewServer(NewRouter(led, quote.DefaultTable(), "memory", &logger.EmptyLogger{}))
	t.Cleanup(srv.Close)
	return srv, led
}

func createBody(mutate func(map[string]interface{})) []byte {
	body := map[string]interface{}{
		"intentType":   "swap",
		"tokenIn":      "STTEST.token-a",
		"tokenOut":     "STTEST.token-b",
		"amountIn":     "100000",
		"minAmountOut": "97000",
		"deadline":     time.Now().Unix() + 3600,
		"solverFeeBps": 30,
		"creator":      "STCREATOR1",
	}
	if mutate != nil {
		mutate(body)
	}
	raw, _ := json.Marshal(body)
	return raw
}

func postJSON(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "memory", body["mode"])
}

func TestCreateIntent(t *testing.T) {
	srv, led := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/intents/create", createBody(nil))

	var body struct {
		Data struct {
			TxID   string        `json:"txid"`
			Intent models.Intent `json:"intent"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body.Data.TxID, "mock-create-")
	assert.Equal(t, models.StatusOpen, body.Data.Intent.Status)
	assert.Equal(t, "STCREATOR1", body.Data.Intent.Creator)

	stored, err := led.Get(context.Background(), body.Data.Intent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, stored.Status)
}

func TestCreateIntentDefaultsCreator(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/intents/create", createBody(func(b map[string]interface{}) {
		delete(b, "creator")
	}))

	var body struct {
		Data struct {
			Intent models.Intent `json:"intent"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "STDEMOUSER", body.Data.Intent.Creator)
}

func TestCreateIntentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"fee above bound", func(b map[string]interface{}) { b["solverFeeBps"] = 10001 }},
		{"non-numeric amount", func(b map[string]interface{}) { b["amountIn"] = "12.5" }},
		{"unknown type", func(b map[string]interface{}) { b["intentType"] = "loan" }},
		{"zero deadline", func(b map[string]interface{}) { b["deadline"] = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, led := newTestServer(t)

			resp := postJSON(t, srv.URL+"/api/intents/create", createBody(tc.mutate))
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			// Nothing reached the ledger.
			page, err := led.List(context.Background(), 0, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
		})
	}
}

func TestCreateIntentRejectsUnfillable(t *testing.T) {
	srv, led := newTestServer(t)

	// 100000 at 98/100 quotes 98000 gross, below this floor.
	resp := postJSON(t, srv.URL+"/api/intents/create", createBody(func(b map[string]interface{}) {
		b["minAmountOut"] = "99000"
	}))

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, quote.ReasonBelowFloor, body.Error)

	page, err := led.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCreateIntentRejectsUnpricedPair(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/intents/create", createBody(func(b map[string]interface{}) {
		b["tokenOut"] = "STTEST.token-z"
	}))

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, quote.ReasonNoPrice, body.Error)
}

func TestGetIntent(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	resp, err := http.Get(srv.URL + "/api/intents/1")
	require.NoError(t, err)

	var body struct {
		Data models.Intent `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), body.Data.ID)
	assert.Equal(t, models.StatusOpen, body.Data.Status)
}

func TestGetIntentNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/intents/42")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetIntentBadID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/intents/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListIntentsFilters(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed() // one open, one expired, different creators

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 2},
		{"open only", "?status=open", 1},
		{"expired only", "?status=expired", 1},
		{"by creator", "?creator=ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE1", 1},
		{"no match", "?creator=STNOBODY", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/intents" + tc.query)
			require.NoError(t, err)

			var body struct {
				Data  []models.Intent `json:"data"`
				Count int             `json:"count"`
			}
			decodeBody(t, resp, &body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Len(t, body.Data, tc.want)
			assert.Equal(t, tc.want, body.Count)
		})
	}
}

func TestCancelIntent(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	raw, _ := json.Marshal(map[string]string{
		"creator": "ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE1",
		"tokenIn": "STTEST.token-a",
	})
	resp := postJSON(t, srv.URL+"/api/intents/1/cancel", raw)

	var body struct {
		Data struct {
			TxID   string        `json:"txid"`
			Intent models.Intent `json:"intent"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body.Data.TxID, "mock-cancel-")
	assert.Equal(t, models.StatusCanceled, body.Data.Intent.Status)
}

func TestCancelIntentWrongCreator(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	raw, _ := json.Marshal(map[string]string{
		"creator": "STSOMEONEELSE",
		"tokenIn": "STTEST.token-a",
	})
	resp := postJSON(t, srv.URL+"/api/intents/1/cancel", raw)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCancelIntentNotOpen(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	// Intent 2 is seeded past its deadline, so it reads expired.
	raw, _ := json.Marshal(map[string]string{
		"creator": "ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE2",
		"tokenIn": "STTEST.token-b",
	})
	resp := postJSON(t, srv.URL+"/api/intents/2/cancel", raw)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCancelIntentMissingBodyFields(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	raw, _ := json.Marshal(map[string]string{"creator": "ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE1"})
	resp := postJSON(t, srv.URL+"/api/intents/1/cancel", raw)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteEndpoint(t *testing.T) {
	srv, led := newTestServer(t)
	led.Seed()

	resp, err := http.Get(srv.URL + "/api/quote?id=1")
	require.NoError(t, err)

	var body struct {
		Data models.Quote `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Data.Valid)
	assert.Equal(t, "98000", body.Data.GrossAmountOut)
	assert.Equal(t, "294", body.Data.SolverFee)
	assert.Equal(t, "97706", body.Data.CreatorAmountOut)
}

func TestStatusWriterIgnoresDuplicateWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusBadRequest)
	sw.WriteHeader(http.StatusInternalServerError)

	// The first status sticks and the second never reaches the
	// underlying writer.
	assert.Equal(t, http.StatusBadRequest, sw.status)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteEndpointRequiresID(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, q := range []string{"", "?id=abc", "?id=0"} {
		resp, err := http.Get(fmt.Sprintf("%s/api/quote%s", srv.URL, q))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}
