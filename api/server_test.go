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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kila6/whatsabi/conf"
)

// PUSH4 0x18160ddd EQ PUSH1 0x09 JUMPI JUMPDEST CALLVALUE DUP1 ISZERO SLOAD RETURN
const dispatchCode = "0x6318160ddd146009575b34801554f3"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(conf.APIConfig{ListenAddr: "127.0.0.1:0", CORSOrigins: []string{"*"}})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postABI(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/abi", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestServeABIRawBody(t *testing.T) {
	srv := newTestServer(t)
	resp, raw := postABI(t, srv, dispatchCode)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		ABI []map[string]interface{} `json:"abi"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.ABI, 1)
	require.Equal(t, "function", decoded.ABI[0]["type"])
	require.Equal(t, "0x18160ddd", decoded.ABI[0]["selector"])
}

func TestServeABIJSONBody(t *testing.T) {
	srv := newTestServer(t)
	resp, raw := postABI(t, srv, `{"bytecode":"`+dispatchCode+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), "0x18160ddd")
}

func TestServeABIMalformed(t *testing.T) {
	srv := newTestServer(t)
	resp, raw := postABI(t, srv, "0xzz")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(raw), "error")
}

func TestServeABIMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/abi")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServeMetrics(t *testing.T) {
	srv := newTestServer(t)
	postABI(t, srv, dispatchCode)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "whatsabi_analyses_total")
}

func TestServeCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/abi", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
