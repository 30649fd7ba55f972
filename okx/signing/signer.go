// Package signing builds OKX v5 REST authentication headers.
//
// The signed message is timestamp + upper(method) + requestPath + body,
// where requestPath includes the query string when present and body is the
// exact byte serialization that will be transmitted. Signing is pure
// computation over in-memory strings; there are no error paths.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t as the ISO-8601 UTC millisecond timestamp OKX expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Sign computes base64(HMAC-SHA256(timestamp+METHOD+requestPath+body, secret)).
func Sign(secretKey, timestamp, method, requestPath, body string) string {
	message := timestamp + strings.ToUpper(method) + requestPath + body
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Headers returns the full OK-ACCESS header set for one request.
//
// The timestamp is taken once from now and reused for both the signature and
// the OK-ACCESS-TIMESTAMP header: recomputing it between the two would
// invalidate the signature.
func Headers(apiKey, secretKey, passphrase, method, requestPath, body string, simulated bool, now time.Time) map[string]string {
	ts := Timestamp(now)
	h := map[string]string{
		"OK-ACCESS-KEY":        apiKey,
		"OK-ACCESS-SIGN":       Sign(secretKey, ts, method, requestPath, body),
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": passphrase,
		"Content-Type":         "application/json",
	}
	// 0 = real trading, 1 = demo trading
	if simulated {
		h["x-simulated-trading"] = "1"
	} else {
		h["x-simulated-trading"] = "0"
	}
	return h
}
