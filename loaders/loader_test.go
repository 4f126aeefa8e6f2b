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

package loaders

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kila6/whatsabi/abi"
	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

func TestOpenChainLoaderFunctions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "0xa9059cbb", r.URL.Query().Get("function"))
		require.Equal(t, "true", r.URL.Query().Get("filter"))
		fmt.Fprint(w, `{"ok":true,"result":{"function":{"0xa9059cbb":[{"name":"transfer(address,uint256)"}]},"event":{}}}`)
	}))
	defer srv.Close()

	loader := &OpenChainLoader{BaseURL: srv.URL, Client: srv.Client()}
	sigs, err := loader.LoadFunctions(context.Background(), "0xa9059cbb")
	require.NoError(t, err)
	require.Equal(t, []string{"transfer(address,uint256)"}, sigs)
}

func TestOpenChainLoaderEvents(t *testing.T) {
	topic := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, topic, r.URL.Query().Get("event"))
		fmt.Fprintf(w, `{"ok":true,"result":{"function":{},"event":{"%s":[{"name":"Transfer(address,address,uint256)"}]}}}`, topic)
	}))
	defer srv.Close()

	loader := &OpenChainLoader{BaseURL: srv.URL, Client: srv.Client()}
	sigs, err := loader.LoadEvents(context.Background(), topic)
	require.NoError(t, err)
	require.Equal(t, []string{"Transfer(address,address,uint256)"}, sigs)
}

func TestOpenChainLoaderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"function":{},"event":{}}}`)
	}))
	defer srv.Close()

	loader := &OpenChainLoader{BaseURL: srv.URL, Client: srv.Client()}
	_, err := loader.LoadFunctions(context.Background(), "0xdeadbeef")
	require.ErrorIs(t, err, kerrors.ErrSignatureNotFound)
}

func TestFourByteLoaderOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/signatures/", r.URL.Path)
		require.Equal(t, "0xa9059cbb", r.URL.Query().Get("hex_signature"))
		// Spam collision submitted later (higher id) comes first in the
		// API response; the loader must re-rank by id.
		fmt.Fprint(w, `{"count":2,"results":[
			{"id":842554,"text_signature":"many_msg_babbage(bytes1)"},
			{"id":145,"text_signature":"transfer(address,uint256)"}
		]}`)
	}))
	defer srv.Close()

	loader := &FourByteLoader{BaseURL: srv.URL, Client: srv.Client()}
	sigs, err := loader.LoadFunctions(context.Background(), "0xa9059cbb")
	require.NoError(t, err)
	require.Equal(t, "transfer(address,uint256)", sigs[0])
}

func TestFourByteLoaderEventsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/event-signatures/", r.URL.Path)
		fmt.Fprint(w, `{"count":1,"results":[{"id":1,"text_signature":"Transfer(address,address,uint256)"}]}`)
	}))
	defer srv.Close()

	loader := &FourByteLoader{BaseURL: srv.URL, Client: srv.Client()}
	sigs, err := loader.LoadEvents(context.Background(), "0xddf252ad")
	require.NoError(t, err)
	require.Equal(t, []string{"Transfer(address,address,uint256)"}, sigs)
}

// stubLoader answers from a fixed table.
type stubLoader struct {
	functions map[string][]string
	events    map[string][]string
	calls     atomic.Int64
	err       error
}

func (s *stubLoader) LoadFunctions(ctx context.Context, selector string) ([]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if sigs, ok := s.functions[selector]; ok {
		return sigs, nil
	}
	return nil, kerrors.ErrSignatureNotFound
}

func (s *stubLoader) LoadEvents(ctx context.Context, topic string) ([]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if sigs, ok := s.events[topic]; ok {
		return sigs, nil
	}
	return nil, kerrors.ErrSignatureNotFound
}

func TestMultiLoaderFallback(t *testing.T) {
	empty := &stubLoader{}
	failing := &stubLoader{err: fmt.Errorf("upstream down")}
	full := &stubLoader{functions: map[string][]string{
		"0x18160ddd": {"totalSupply()"},
	}}
	multi := NewMultiLoader(empty, failing, full)

	sigs, err := multi.LoadFunctions(context.Background(), "0x18160ddd")
	require.NoError(t, err)
	require.Equal(t, []string{"totalSupply()"}, sigs)

	_, err = multi.LoadFunctions(context.Background(), "0xdeadbeef")
	require.ErrorIs(t, err, kerrors.ErrSignatureNotFound)
}

func TestCachedLoader(t *testing.T) {
	stub := &stubLoader{functions: map[string][]string{
		"0x18160ddd": {"totalSupply()"},
	}}
	cached, err := NewCachedLoader(stub, 16)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		sigs, err := cached.LoadFunctions(context.Background(), "0x18160ddd")
		require.NoError(t, err)
		require.Equal(t, []string{"totalSupply()"}, sigs)
	}
	require.Equal(t, int64(1), stub.calls.Load())

	// Negative results are cached too.
	for i := 0; i < 5; i++ {
		_, err := cached.LoadFunctions(context.Background(), "0xdeadbeef")
		require.ErrorIs(t, err, kerrors.ErrSignatureNotFound)
	}
	require.Equal(t, int64(2), stub.calls.Load())
}

func TestResolveRecords(t *testing.T) {
	stub := &stubLoader{
		functions: map[string][]string{
			"0x18160ddd": {"totalSupply()"},
		},
		events: map[string][]string{
			"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": {"Transfer(address,address,uint256)"},
		},
	}
	records := []abi.Record{
		&abi.Function{Type: "function", Selector: "0x18160ddd"},
		&abi.Function{Type: "function", Selector: "0xdeadbeef"},
		&abi.Event{Type: "event", Hash: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"},
	}
	require.NoError(t, ResolveRecords(context.Background(), stub, records))

	require.Equal(t, "totalSupply()", records[0].(*abi.Function).Signature)
	require.Empty(t, records[1].(*abi.Function).Signature)
	require.Equal(t, "Transfer(address,address,uint256)", records[2].(*abi.Event).Signature)
}
