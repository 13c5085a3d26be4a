package lbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func parseForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	require.NoError(t, r.ParseForm())
	return r.PostForm
}

func TestPostSendsSignedForm(t *testing.T) {
	var gotForm url.Values
	var gotHeaders http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotForm = parseForm(t, r)
		gotHeaders = r.Header.Clone()
		w.Write([]byte(`{"result":true,"data":{}}`))
	})

	require.NoError(t, client.post(context.Background(), endpointUserInfo, nil, "my-key", "my-secret", nil))

	assert.Equal(t, "my-key", gotForm.Get("api_key"))
	assert.Equal(t, "HmacSHA256", gotForm.Get("signature_method"))
	assert.NotEmpty(t, gotForm.Get("timestamp"))
	assert.NotEmpty(t, gotForm.Get("echostr"))
	assert.NotEmpty(t, gotForm.Get("sign"))

	assert.Equal(t, gotForm.Get("echostr"), gotHeaders.Get("echostr"))
	assert.Equal(t, gotForm.Get("timestamp"), gotHeaders.Get("timestamp"))
	assert.Equal(t, "HmacSHA256", gotHeaders.Get("signature_method"))
	assert.Contains(t, gotHeaders.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func TestPostEnvelopeErrorBecomesExchangeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":false,"error_code":10008,"msg":"invalid sign"}`))
	})

	err := client.post(context.Background(), endpointUserInfo, nil, "k", "s", nil)
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, 10008, exchErr.Code)
	assert.Equal(t, "invalid sign", exchErr.Msg)
	assert.Zero(t, exchErr.Status)
}

func TestPostStringResultVariants(t *testing.T) {
	for _, body := range []string{
		`{"result":true,"data":{}}`,
		`{"result":"true","data":{}}`,
		`{"result":"True","data":{}}`,
	} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		assert.NoError(t, client.post(context.Background(), endpointUserInfo, nil, "k", "s", nil), body)
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"false","error_code":10022}`))
	})
	err := client.post(context.Background(), endpointUserInfo, nil, "k", "s", nil)
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, 10022, exchErr.Code)
}

func TestPostNon2xxBecomesExchangeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.post(context.Background(), endpointUserInfo, nil, "k", "s", nil)
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusBadGateway, exchErr.Status)
}

func TestUSDTBalanceSumsAvailableAndFrozen(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"info":{"free":{"usdt":"1200.5","izky":"300"},"freeze":{"usdt":"99.5","izky":"0"}}}}`))
	})

	balance, err := client.USDTBalance(context.Background(), "k", "s")
	require.NoError(t, err)
	assert.InDelta(t, 1300.0, balance, 1e-9)
}

func TestUSDTBalanceMissingAssetIsZero(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"info":{"free":{"izky":"300"},"freeze":{"izky":"0"}}}}`))
	})

	balance, err := client.USDTBalance(context.Background(), "k", "s")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestAccountBalanceFlattensMaps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"info":{"free":{"usdt":"10","btc":"1"},"freeze":{"usdt":"2"}}}}`))
	})

	balances, err := client.AccountBalance(context.Background(), "k", "s")
	require.NoError(t, err)
	require.Len(t, balances, 2)

	byAsset := map[string]AssetBalance{}
	for _, b := range balances {
		byAsset[b.Asset] = b
	}
	assert.Equal(t, "10", byAsset["usdt"].Available)
	assert.Equal(t, "2", byAsset["usdt"].Frozen)
	// No freeze entry defaults to zero.
	assert.Equal(t, "0", byAsset["btc"].Frozen)
}

func TestTransactionHistoryParams(t *testing.T) {
	var gotForm url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotForm = parseForm(t, r)
		w.Write([]byte(`{"result":true,"data":{"orders":[]}}`))
	})

	_, err := client.TransactionHistory(context.Background(), "k", "s", "izky_usdt", 1700000000000, 1700000100000, 50)
	require.NoError(t, err)

	assert.Equal(t, "izky_usdt", gotForm.Get("symbol"))
	assert.Equal(t, "1", gotForm.Get("current_page"))
	assert.Equal(t, "50", gotForm.Get("page_length"))
	assert.Equal(t, "1700000000000", gotForm.Get("start_date"))
	assert.Equal(t, "1700000100000", gotForm.Get("end_date"))
}

func TestTransactionHistoryZeroTimesOmitted(t *testing.T) {
	var gotForm url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotForm = parseForm(t, r)
		w.Write([]byte(`{"result":true,"data":{"orders":[]}}`))
	})

	_, err := client.TransactionHistory(context.Background(), "k", "s", "izky_usdt", 0, 0, 0)
	require.NoError(t, err)

	assert.False(t, gotForm.Has("start_date"))
	assert.False(t, gotForm.Has("end_date"))
	assert.Equal(t, "100", gotForm.Get("page_length"))
}

func TestVolumeForPairSumsAndFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"orders":[
			{"dealVolume":"10","dealPrice":"2.5","transactTime":"1700000000500"},
			{"dealVolume":"4","dealPrice":"3","transactTime":"1700000001000"},
			{"dealVolume":"100","dealPrice":"1","transactTime":"1699999999000"},
			{"dealVolume":"oops","dealPrice":"1","transactTime":"1700000002000"}
		]}}`))
	})

	// 10*2.5 + 4*3; the pre-window trade and the unparseable row are skipped.
	volume, err := client.VolumeForPair(context.Background(), "k", "s", "izky_usdt", 1700000000000)
	require.NoError(t, err)
	assert.InDelta(t, 37.0, volume, 1e-9)
}

func TestUserInfoProbe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"uid":"42"}}`))
	})

	info, err := client.UserInfo(context.Background(), "k", "s")
	require.NoError(t, err)
	assert.Equal(t, "42", info.UID)
}

func TestSymbolFromPair(t *testing.T) {
	assert.Equal(t, "izky_usdt", SymbolFromPair("IZKY/USDT"))
	assert.Equal(t, "btc_usdt", SymbolFromPair("btc_usdt"))
}
