package lbank

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const signatureMethod = "HmacSHA256"

const echostrCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// echostrLength is within LBank's accepted 30-40 character bounds.
const echostrLength = 35

func randomEchostr() string {
	var b strings.Builder
	b.Grow(echostrLength)
	for i := 0; i < echostrLength; i++ {
		b.WriteByte(echostrCharset[rand.Intn(len(echostrCharset))])
	}
	return b.String()
}

func md5Uppercase(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// buildSignature implements LBank's signing scheme: sort all parameter
// keys, join as key=value pairs with '&', MD5 the result as uppercase
// hex, then HMAC-SHA256 that digest string with the account secret and
// hex-encode. Deterministic for a fixed parameter set.
func buildSignature(params map[string]string, secretKey string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	canonical := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(md5Uppercase(canonical)))
	return hex.EncodeToString(mac.Sum(nil))
}

// buildRequest assembles the signed form body and the duplicated auth
// headers for one API call. LBank accepts echostr/timestamp/
// signature_method in either the body or headers; both are sent because
// some endpoint variants check one and some the other.
func buildRequest(params map[string]string, apiKey, secretKey string) (url.Values, map[string]string) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	echostr := randomEchostr()

	all := map[string]string{
		"api_key":          apiKey,
		"signature_method": signatureMethod,
		"timestamp":        timestamp,
		"echostr":          echostr,
	}
	for k, v := range params {
		all[k] = v
	}

	all["sign"] = buildSignature(all, secretKey)

	body := url.Values{}
	for k, v := range all {
		body.Set(k, v)
	}

	headers := map[string]string{
		"Content-Type":     "application/x-www-form-urlencoded",
		"echostr":          echostr,
		"timestamp":        timestamp,
		"signature_method": signatureMethod,
	}
	return body, headers
}
