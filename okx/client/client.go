// Package client is the per-account OKX REST gateway.
//
// Every operation returns the exchange envelope (*Response) and never a Go
// error: transport failures are normalized to {code:"-1", msg:"Request
// failed: …", data:[]} so fan-out callers can branch on code uniformly.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/betbot/gokx/okx/signing"
)

// Credential 一套账户凭证，加载后不可变
type Credential struct {
	Name       string
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Complete reports whether all three secrets are present.
func (c Credential) Complete() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// Options 客户端配置
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Simulated bool // demo trading (x-simulated-trading: 1)
}

// Client owns exactly one credential and is stateless across calls.
type Client struct {
	cred      Credential
	simulated bool
	http      *resty.Client
	log       *logrus.Entry
	now       func() time.Time // injectable for tests
}

// New 创建账户客户端
func New(cred Credential, opts Options) *Client {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://www.okx.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY / HTTPS_PROXY）
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &Client{
		cred:      cred,
		simulated: opts.Simulated,
		http:      httpClient,
		log:       logrus.WithFields(logrus.Fields{"component": "okx_client", "account": cred.Name}),
		now:       time.Now,
	}
}

// Name returns the owning account name.
func (c *Client) Name() string {
	return c.cred.Name
}

// param is one query-string pair. Pairs are encoded in the order given and
// the encoded string is both signed and transmitted, so signature and wire
// form can never drift apart.
type param struct {
	key string
	val string
}

func encodeParams(params []param) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.val))
	}
	return b.String()
}

// request issues one signed call. body, when non-nil, is marshaled exactly
// once; the same bytes are signed and sent.
func (c *Client) request(method, endpoint string, params []param, body any) *Response {
	requestPath := endpoint
	if qs := encodeParams(params); qs != "" {
		requestPath += "?" + qs
	}

	bodyStr := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return failure(fmt.Sprintf("Request failed: marshal body: %v", err))
		}
		bodyStr = string(raw)
	}

	headers := signing.Headers(
		c.cred.APIKey, c.cred.SecretKey, c.cred.Passphrase,
		method, requestPath, bodyStr, c.simulated, c.now(),
	)

	req := c.http.R().SetHeaders(headers)
	if bodyStr != "" {
		req.SetBody(bodyStr)
	}

	resp, err := req.Execute(method, requestPath)
	if err != nil {
		c.log.Warnf("%s %s transport error: %v", method, endpoint, err)
		return failure(fmt.Sprintf("Request failed: %v", err))
	}

	var envelope Response
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil || envelope.Code == "" {
		if resp.StatusCode() != http.StatusOK {
			c.log.Warnf("%s %s http %d: %s", method, endpoint, resp.StatusCode(), truncate(resp.Body(), 200))
			return failure(fmt.Sprintf("Request failed: http %d", resp.StatusCode()))
		}
		return failure(fmt.Sprintf("Request failed: unparsable response: %s", truncate(resp.Body(), 200)))
	}

	// Application-level rejections pass through verbatim.
	if !envelope.IsOK() {
		c.log.Debugf("%s %s rejected: code=%s msg=%s", method, endpoint, envelope.Code, envelope.Msg)
	}
	return &envelope
}

func (c *Client) get(endpoint string, params []param) *Response {
	return c.request(http.MethodGet, endpoint, params, nil)
}

func (c *Client) post(endpoint string, body any) *Response {
	return c.request(http.MethodPost, endpoint, nil, body)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
