// Package wasm reads farm, governance and pair contracts through CosmWasm LCD smart queries.
package wasm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

var ErrQueryFailed = errors.New("smart query failed")

const (
	smartQueryPath = "/cosmwasm/wasm/v1/contract/%s/smart/%s"

	// DefaultMaxResponseBytes bounds how much of an LCD answer is read.
	DefaultMaxResponseBytes = 1 << 20
)

type Client struct {
	baseURL  string
	http     *http.Client
	maxBytes int64
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxResponseBytes,
	}
}

type smartResponse[T any] struct {
	Data T `json:"data"`
}

type lcdError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// query sends msg to contract and decodes the data field of the answer into T.
func query[T any](ctx context.Context, c *Client, contract string, msg any) (*T, error) {
	raw, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode query for %s: %w", contract, err)
	}
	endpoint := c.baseURL + fmt.Sprintf(smartQueryPath, url.PathEscape(contract), url.PathEscape(base64.StdEncoding.EncodeToString(raw)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", contract, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", contract, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s: response larger than %d bytes", ErrQueryFailed, contract, c.maxBytes)
	}
	if resp.StatusCode != http.StatusOK {
		var e lcdError
		if sonic.Unmarshal(body, &e) == nil && e.Message != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrQueryFailed, contract, e.Message)
		}
		return nil, fmt.Errorf("%w: %s: status %d", ErrQueryFailed, contract, resp.StatusCode)
	}

	var out smartResponse[T]
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", contract, err)
	}
	return &out.Data, nil
}

// Uint128 is the string-encoded integer CosmWasm contracts answer with.
type Uint128 string

func (u Uint128) parse(field string, dst *uint256.Int) error {
	if u == "" {
		dst.Clear()
		return nil
	}
	v, err := fixedpoint.ParseAmount(string(u))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	dst.Set(v)
	return nil
}
