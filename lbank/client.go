// Package lbank implements the read-only LBank REST client used for cup
// scoring: signed balance, trade-history and identity queries. It never
// retries; callers decide whether a failed read is fatal.
package lbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.lbkex.com"

	endpointAccountInfo        = "/v2/supplement/user_info_account.do"
	endpointTransactionHistory = "/v2/supplement/transaction_history.do"
	endpointUserInfo           = "/v2/supplement/user_info.do"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		BaseURL: base,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

// SymbolFromPair converts a display pair like "IZKY/USDT" to LBank's
// wire symbol "izky_usdt".
func SymbolFromPair(pair string) string {
	return strings.ToLower(strings.ReplaceAll(pair, "/", "_"))
}

func (c *Client) post(ctx context.Context, endpoint string, params map[string]string, apiKey, secretKey string, out any) error {
	body, headers := buildRequest(params, apiKey, secretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, strings.NewReader(body.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("lbank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return &ExchangeError{Status: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode lbank response: %w", err)
	}
	if !bool(env.Result) {
		return &ExchangeError{Code: env.ErrorCode, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode lbank data: %w", err)
		}
	}
	return nil
}

// AccountBalance returns one row per asset, flattening LBank's parallel
// free/freeze maps.
func (c *Client) AccountBalance(ctx context.Context, apiKey, secretKey string) ([]AssetBalance, error) {
	var info accountInfo
	if err := c.post(ctx, endpointAccountInfo, nil, apiKey, secretKey, &info); err != nil {
		return nil, err
	}

	balances := make([]AssetBalance, 0, len(info.Info.Free))
	for asset, available := range info.Info.Free {
		frozen := info.Info.Freeze[asset]
		if frozen == "" {
			frozen = "0"
		}
		balances = append(balances, AssetBalance{
			Asset:     asset,
			Available: available,
			Frozen:    frozen,
		})
	}
	return balances, nil
}

// USDTBalance returns available+frozen USDT. A missing USDT row means
// zero holdings, not an error.
func (c *Client) USDTBalance(ctx context.Context, apiKey, secretKey string) (float64, error) {
	balances, err := c.AccountBalance(ctx, apiKey, secretKey)
	if err != nil {
		return 0, err
	}
	for _, b := range balances {
		if strings.EqualFold(b.Asset, "usdt") {
			available, _ := strconv.ParseFloat(b.Available, 64)
			frozen, _ := strconv.ParseFloat(b.Frozen, 64)
			return available + frozen, nil
		}
	}
	return 0, nil
}

// TransactionHistory lists trades for one symbol. startTime/endTime are
// millisecond timestamps; zero means unbounded.
func (c *Client) TransactionHistory(ctx context.Context, apiKey, secretKey, symbol string, startTime, endTime int64, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	params := map[string]string{
		"symbol":       symbol,
		"current_page": "1",
		"page_length":  strconv.Itoa(limit),
	}
	if startTime > 0 {
		params["start_date"] = strconv.FormatInt(startTime, 10)
	}
	if endTime > 0 {
		params["end_date"] = strconv.FormatInt(endTime, 10)
	}

	var hist transactionHistory
	if err := c.post(ctx, endpointTransactionHistory, params, apiKey, secretKey, &hist); err != nil {
		return nil, err
	}
	return hist.Orders, nil
}

// UserInfo probes the credential pair against the identity endpoint.
func (c *Client) UserInfo(ctx context.Context, apiKey, secretKey string) (UserInfo, error) {
	var info UserInfo
	if err := c.post(ctx, endpointUserInfo, nil, apiKey, secretKey, &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

// VolumeForPair sums dealVolume*dealPrice in quote currency over all
// trades at or after startTimestamp (ms). Trades whose deal fields do
// not parse as numbers are skipped, not fatal.
func (c *Client) VolumeForPair(ctx context.Context, apiKey, secretKey, symbol string, startTimestamp int64) (float64, error) {
	trades, err := c.TransactionHistory(ctx, apiKey, secretKey, symbol, startTimestamp, 0, 100)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, trade := range trades {
		if t, err := strconv.ParseInt(trade.TransactTime, 10, 64); err == nil && t < startTimestamp {
			continue
		}
		dealVolume, err1 := strconv.ParseFloat(trade.DealVolume, 64)
		dealPrice, err2 := strconv.ParseFloat(trade.DealPrice, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		total += dealVolume * dealPrice
	}
	return total, nil
}
