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

// Package loaders resolves selectors and event topics against public
// signature databases. Lookups are preimage recovery, not verification:
// a resolved signature is a plausible name for a hash, nothing more.
package loaders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	perrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kila6/whatsabi/abi"
	"github.com/kila6/whatsabi/log"
	kerrors "github.com/kila6/whatsabi/pkg/errors"
)

// SignatureLoader resolves a 4-byte selector or a 32-byte event topic to
// the known signatures hashing to it. A successful lookup with no match
// fails with ErrSignatureNotFound.
type SignatureLoader interface {
	LoadFunctions(ctx context.Context, selector string) ([]string, error)
	LoadEvents(ctx context.Context, topic string) ([]string, error)
}

// resolveLimit bounds concurrent lookups against the public databases.
const resolveLimit = 8

// ResolveRecords fills in the Signature field of each record for which a
// signature can be found, querying concurrently. Missing signatures are
// not an error; transport failures are.
func ResolveRecords(ctx context.Context, loader SignatureLoader, records []abi.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)

	for _, record := range records {
		record := record
		g.Go(func() error {
			var (
				sigs []string
				err  error
			)
			switch r := record.(type) {
			case *abi.Function:
				sigs, err = loader.LoadFunctions(ctx, r.Selector)
				if err == nil && len(sigs) > 0 {
					r.Signature = sigs[0]
				}
			case *abi.Event:
				sigs, err = loader.LoadEvents(ctx, r.Hash)
				if err == nil && len(sigs) > 0 {
					r.Signature = sigs[0]
				}
			}
			if perrors.Is(err, kerrors.ErrSignatureNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// OpenChainLoader queries the openchain.xyz signature database.
type OpenChainLoader struct {
	// BaseURL overrides the production endpoint, for testing.
	BaseURL string
	Client  *http.Client
}

// NewOpenChainLoader returns a loader against the production
// openchain.xyz endpoint.
func NewOpenChainLoader() *OpenChainLoader {
	return &OpenChainLoader{
		BaseURL: "https://api.openchain.xyz/signature-database/v1/lookup",
		Client:  &http.Client{},
	}
}

type openchainEntry struct {
	Name string `json:"name"`
}

type openchainResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		Function map[string][]openchainEntry `json:"function"`
		Event    map[string][]openchainEntry `json:"event"`
	} `json:"result"`
}

// LoadFunctions implements SignatureLoader.
func (l *OpenChainLoader) LoadFunctions(ctx context.Context, selector string) ([]string, error) {
	return l.lookup(ctx, "function", selector)
}

// LoadEvents implements SignatureLoader.
func (l *OpenChainLoader) LoadEvents(ctx context.Context, topic string) ([]string, error) {
	return l.lookup(ctx, "event", topic)
}

func (l *OpenChainLoader) lookup(ctx context.Context, kind, hash string) ([]string, error) {
	u, err := url.Parse(l.BaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(kind, hash)
	q.Set("filter", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, perrors.Wrap(err, "openchain lookup")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, perrors.Errorf("openchain lookup: unexpected status %s", resp.Status)
	}

	var decoded openchainResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, perrors.Wrap(err, "openchain lookup")
	}
	entries := decoded.Result.Function[hash]
	if kind == "event" {
		entries = decoded.Result.Event[hash]
	}
	if !decoded.OK || len(entries) == 0 {
		return nil, kerrors.ErrSignatureNotFound
	}
	sigs := make([]string, 0, len(entries))
	for _, e := range entries {
		sigs = append(sigs, e.Name)
	}
	return sigs, nil
}

// FourByteLoader queries the 4byte.directory signature database.
type FourByteLoader struct {
	// BaseURL overrides the production endpoint, for testing.
	BaseURL string
	Client  *http.Client
}

// NewFourByteLoader returns a loader against the production
// 4byte.directory endpoint.
func NewFourByteLoader() *FourByteLoader {
	return &FourByteLoader{
		BaseURL: "https://www.4byte.directory/api/v1",
		Client:  &http.Client{},
	}
}

type fourByteResult struct {
	ID            int    `json:"id"`
	TextSignature string `json:"text_signature"`
}

type fourByteResponse struct {
	Results []fourByteResult `json:"results"`
}

// LoadFunctions implements SignatureLoader.
func (l *FourByteLoader) LoadFunctions(ctx context.Context, selector string) ([]string, error) {
	return l.lookup(ctx, "/signatures/", selector)
}

// LoadEvents implements SignatureLoader.
func (l *FourByteLoader) LoadEvents(ctx context.Context, topic string) ([]string, error) {
	return l.lookup(ctx, "/event-signatures/", topic)
}

func (l *FourByteLoader) lookup(ctx context.Context, path, hash string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		l.BaseURL+path+"?hex_signature="+url.QueryEscape(hash), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, perrors.Wrap(err, "4byte lookup")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, perrors.Errorf("4byte lookup: unexpected status %s", resp.Status)
	}

	var decoded fourByteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, perrors.Wrap(err, "4byte lookup")
	}
	if len(decoded.Results) == 0 {
		return nil, kerrors.ErrSignatureNotFound
	}
	// Earliest submissions first; collisions are usually spam submitted
	// after the real signature.
	sort.Slice(decoded.Results, func(i, j int) bool {
		return decoded.Results[i].ID < decoded.Results[j].ID
	})
	sigs := make([]string, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		sigs = append(sigs, r.TextSignature)
	}
	return sigs, nil
}

// MultiLoader tries each loader in order and returns the first set of
// signatures found. Transport failures are logged and skipped; the next
// loader gets its chance.
type MultiLoader struct {
	loaders []SignatureLoader
}

// NewMultiLoader chains the given loaders.
func NewMultiLoader(loaders ...SignatureLoader) *MultiLoader {
	return &MultiLoader{loaders: loaders}
}

// DefaultLoader returns the production lookup chain: openchain.xyz
// first, 4byte.directory as fallback.
func DefaultLoader() SignatureLoader {
	return NewMultiLoader(NewOpenChainLoader(), NewFourByteLoader())
}

// LoadFunctions implements SignatureLoader.
func (l *MultiLoader) LoadFunctions(ctx context.Context, selector string) ([]string, error) {
	return l.load(ctx, selector, SignatureLoader.LoadFunctions)
}

// LoadEvents implements SignatureLoader.
func (l *MultiLoader) LoadEvents(ctx context.Context, topic string) ([]string, error) {
	return l.load(ctx, topic, SignatureLoader.LoadEvents)
}

func (l *MultiLoader) load(ctx context.Context, hash string, fn func(SignatureLoader, context.Context, string) ([]string, error)) ([]string, error) {
	for _, loader := range l.loaders {
		sigs, err := fn(loader, ctx, hash)
		if err == nil {
			return sigs, nil
		}
		if !perrors.Is(err, kerrors.ErrSignatureNotFound) {
			log.Debug("Signature lookup failed, trying next", "hash", hash, "err", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, kerrors.ErrSignatureNotFound
}

// CachedLoader wraps another loader with an in-memory LRU. Negative
// results are cached too: the public databases are immutable enough that
// re-asking for an unknown selector every scan is wasted traffic.
type CachedLoader struct {
	inner SignatureLoader
	cache *lru.Cache[string, []string]
}

// NewCachedLoader wraps inner with a cache of the given size.
func NewCachedLoader(inner SignatureLoader, size int) (*CachedLoader, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &CachedLoader{inner: inner, cache: cache}, nil
}

// LoadFunctions implements SignatureLoader.
func (l *CachedLoader) LoadFunctions(ctx context.Context, selector string) ([]string, error) {
	return l.load(ctx, "f:"+selector, selector, l.inner.LoadFunctions)
}

// LoadEvents implements SignatureLoader.
func (l *CachedLoader) LoadEvents(ctx context.Context, topic string) ([]string, error) {
	return l.load(ctx, "e:"+topic, topic, l.inner.LoadEvents)
}

func (l *CachedLoader) load(ctx context.Context, key, hash string, fn func(context.Context, string) ([]string, error)) ([]string, error) {
	if sigs, ok := l.cache.Get(key); ok {
		if sigs == nil {
			return nil, kerrors.ErrSignatureNotFound
		}
		return sigs, nil
	}
	sigs, err := fn(ctx, hash)
	if perrors.Is(err, kerrors.ErrSignatureNotFound) {
		l.cache.Add(key, nil)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, sigs)
	return sigs, nil
}
