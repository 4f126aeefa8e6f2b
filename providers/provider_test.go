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

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

const testCode = "0x6318160ddd14601257"

func newRPCServer(t *testing.T, code string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_getCode", req.Method)
		require.Len(t, req.Params, 2)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  code,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestHTTPProviderGetCode(t *testing.T) {
	srv := newRPCServer(t, testCode, nil)
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	code, err := provider.GetCode(context.Background(), "0x6b175474e89094c44da98b954eedeac495271d0f")
	require.NoError(t, err)
	require.Equal(t, testCode, code)
}

func TestHTTPProviderNoCode(t *testing.T) {
	srv := newRPCServer(t, "0x", nil)
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	_, err := provider.GetCode(context.Background(), "0x0000000000000000000000000000000000000001")
	require.ErrorIs(t, err, kerrors.ErrNoCode)
}

func TestHTTPProviderRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "invalid argument"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	_, err := provider.GetCode(context.Background(), "not-an-address")
	require.ErrorIs(t, err, kerrors.ErrRPCFailure)
	require.Contains(t, err.Error(), "invalid argument")
}

func TestHTTPProviderBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	_, err := provider.GetCode(context.Background(), "0x0000000000000000000000000000000000000001")
	require.ErrorIs(t, err, kerrors.ErrRPCFailure)
}

func TestWSProviderGetCode(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var req rpcRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  testCode,
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	provider, err := DialWSProvider(context.Background(), endpoint)
	require.NoError(t, err)
	defer provider.Close()

	for i := 0; i < 3; i++ {
		code, err := provider.GetCode(context.Background(), "0x6b175474e89094c44da98b954eedeac495271d0f")
		require.NoError(t, err)
		require.Equal(t, testCode, code)
	}
}

func TestCachedProvider(t *testing.T) {
	var calls atomic.Int64
	srv := newRPCServer(t, testCode, &calls)
	defer srv.Close()

	cached, err := NewCachedProvider(NewHTTPProvider(srv.URL), 16)
	require.NoError(t, err)

	addr := "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	for i := 0; i < 5; i++ {
		code, err := cached.GetCode(context.Background(), addr)
		require.NoError(t, err)
		require.Equal(t, testCode, code)
	}
	// Address casing must not defeat the cache.
	_, err = cached.GetCode(context.Background(), strings.ToLower(addr))
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
}

func TestNewProviderScheme(t *testing.T) {
	_, err := New(context.Background(), "ftp://example.com")
	require.ErrorIs(t, err, kerrors.ErrRPCFailure)

	provider, err := New(context.Background(), "https://example.com/rpc")
	require.NoError(t, err)
	require.IsType(t, &HTTPProvider{}, provider)
}
