package lbank

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// resultFlag models LBank's loosely typed "result" envelope field, which
// arrives as true, "true" or "True" on success and false/"false"
// otherwise.
type resultFlag bool

func (r *resultFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*r = true
	case "false", "null":
		*r = false
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unexpected result field %q", data)
		}
		*r = s == "true" || s == "True"
	}
	return nil
}

// envelope is LBank's common response wrapper.
type envelope struct {
	Result    resultFlag      `json:"result"`
	Data      json.RawMessage `json:"data"`
	ErrorCode int             `json:"error_code"`
	Msg       string          `json:"msg"`
}

// ExchangeError reports a failed exchange call: either a non-2xx HTTP
// response (Status set) or an error envelope (Code/Msg set).
type ExchangeError struct {
	Status int
	Code   int
	Msg    string
}

func (e *ExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("lbank: http status %d", e.Status)
	}
	msg := e.Msg
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("lbank: error %d: %s", e.Code, msg)
}

// AssetBalance is one asset row from the account-info endpoint.
type AssetBalance struct {
	Asset     string `json:"asset"`
	Available string `json:"available"`
	Frozen    string `json:"freeze"`
}

// Trade is one entry from the transaction-history endpoint. LBank sends
// all numeric fields as strings.
type Trade struct {
	OrderID      string `json:"orderId"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	Volume       string `json:"volume"`
	DealVolume   string `json:"dealVolume"`
	DealPrice    string `json:"dealPrice"`
	TransactTime string `json:"transactTime"`
}

// UserInfo is the minimal identity probe result used to validate a
// credential pair.
type UserInfo struct {
	UID string `json:"uid"`
}

type accountInfo struct {
	Info struct {
		Free   map[string]string `json:"free"`
		Freeze map[string]string `json:"freeze"`
	} `json:"info"`
}

type transactionHistory struct {
	Orders []Trade `json:"orders"`
}
