// Copyright 2023-2026 The whatsabi Authors
// This file is part of the whatsabi library.
//
// The whatsabi library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The whatsabi library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the whatsabi library. If not, see <http://www.gnu.org/licenses/>.

// Package providers fetches deployed runtime bytecode from a chain node.
// The analysis engine itself never performs I/O; a CodeProvider is the
// collaborator that feeds it.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	perrors "github.com/pkg/errors"

	"github.com/kila6/whatsabi/log"
	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

// CodeProvider returns the runtime bytecode deployed at an address, as
// an 0x-prefixed hex string.
type CodeProvider interface {
	GetCode(ctx context.Context, address string) (string, error)
}

// New returns a provider for the given JSON-RPC endpoint. http(s)
// endpoints use a stateless client; ws(s) endpoints open a persistent
// connection.
func New(ctx context.Context, endpoint string) (CodeProvider, error) {
	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return NewHTTPProvider(endpoint), nil
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return DialWSProvider(ctx, endpoint)
	default:
		return nil, perrors.Wrapf(kerrors.ErrRPCFailure, "unsupported endpoint scheme: %s", endpoint)
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func decodeCodeResult(raw json.RawMessage) (string, error) {
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return "", perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
	}
	if code == "" || code == "0x" {
		return "", kerrors.ErrNoCode
	}
	return code, nil
}

// HTTPProvider is a stateless JSON-RPC client over HTTP.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	nextID   atomic.Uint64
}

// NewHTTPProvider returns a provider talking to the given HTTP endpoint.
func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// GetCode implements CodeProvider via eth_getCode against the latest
// block.
func (p *HTTPProvider) GetCode(ctx context.Context, address string) (string, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      p.nextID.Add(1),
		Method:  "eth_getCode",
		Params:  []interface{}{address, "latest"},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", perrors.Wrapf(kerrors.ErrRPCFailure, "unexpected status %s", resp.Status)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
	}
	if rpcResp.Error != nil {
		return "", perrors.Wrapf(kerrors.ErrRPCFailure, "code %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return decodeCodeResult(rpcResp.Result)
}

// WSProvider is a JSON-RPC client over a persistent WebSocket
// connection. Requests are serialized; the connection carries one
// request/response exchange at a time.
type WSProvider struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	nextID uint64
}

// DialWSProvider connects to the given ws(s) endpoint.
func DialWSProvider(ctx context.Context, endpoint string) (*WSProvider, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
	}
	return &WSProvider{conn: conn}, nil
}

// GetCode implements CodeProvider via eth_getCode against the latest
// block.
func (p *WSProvider) GetCode(ctx context.Context, address string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetReadDeadline(deadline)
		_ = p.conn.SetWriteDeadline(deadline)
	}

	p.nextID++
	id := p.nextID
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "eth_getCode",
		Params:  []interface{}{address, "latest"},
	}
	if err := p.conn.WriteJSON(req); err != nil {
		return "", perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
	}

	// Skip unrelated frames (subscription pushes and the like) until the
	// matching response arrives.
	for {
		var rpcResp rpcResponse
		if err := p.conn.ReadJSON(&rpcResp); err != nil {
			return "", perrors.Wrap(kerrors.ErrRPCFailure, err.Error())
		}
		if rpcResp.ID != id {
			log.Trace("Skipping unmatched ws frame", "want", id, "got", rpcResp.ID)
			continue
		}
		if rpcResp.Error != nil {
			return "", perrors.Wrapf(kerrors.ErrRPCFailure, "code %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
		}
		return decodeCodeResult(rpcResp.Result)
	}
}

// Close shuts down the underlying connection.
func (p *WSProvider) Close() error {
	return p.conn.Close()
}

// CachedProvider wraps another provider with an in-memory LRU of
// address→code. Runtime code can change (CREATE2 redeploys, SELFDESTRUCT)
// so the cache trades a little staleness for a lot of avoided RPC
// round-trips.
type CachedProvider struct {
	inner CodeProvider
	cache *lru.Cache[string, string]
}

// NewCachedProvider wraps inner with a cache of the given size.
func NewCachedProvider(inner CodeProvider, size int) (*CachedProvider, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// GetCode implements CodeProvider.
func (p *CachedProvider) GetCode(ctx context.Context, address string) (string, error) {
	key := strings.ToLower(address)
	if code, ok := p.cache.Get(key); ok {
		return code, nil
	}
	code, err := p.inner.GetCode(ctx, address)
	if err != nil {
		return "", err
	}
	p.cache.Add(key, code)
	return code, nil
}
