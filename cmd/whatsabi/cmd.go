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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kila6/whatsabi/abi"
	"github.com/kila6/whatsabi/api"
	"github.com/kila6/whatsabi/disasm"
	"github.com/kila6/whatsabi/loaders"
	"github.com/kila6/whatsabi/log"
	"github.com/kila6/whatsabi/providers"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var abiCommand = &cli.Command{
	Name:      "abi",
	Usage:     "reconstruct the ABI of a contract",
	ArgsUsage: "<bytecode|file|address|->",
	Flags:     append(append([]cli.Flag{}, rpcFlags...), lookupFlags...),
	Action:    runAbi,
}

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "print the program summary of a contract",
	ArgsUsage: "<bytecode|file|address|->",
	Flags:     rpcFlags,
	Action:    runDisasm,
}

var dotCommand = &cli.Command{
	Name:      "dot",
	Usage:     "print the jump graph in Graphviz format",
	ArgsUsage: "<bytecode|file|address|->",
	Flags:     rpcFlags,
	Action:    runDot,
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "run the HTTP analysis service",
	Flags:  serveFlags,
	Action: runServe,
}

// resolveBytecode turns the positional argument into a hex bytecode
// string: "-" reads stdin, a 20-byte 0x address is fetched over RPC, an
// existing file is read, anything else is taken as the hex itself.
func resolveBytecode(cliCtx *cli.Context) (string, error) {
	arg := cliCtx.Args().First()
	if arg == "" {
		return "", fmt.Errorf("missing bytecode argument, see --help")
	}
	if arg == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	if addressPattern.MatchString(arg) {
		if cfg.Provider.Endpoint == "" {
			return "", fmt.Errorf("%s looks like an address; set --rpc to fetch its code", arg)
		}
		provider, err := providers.New(cliCtx.Context, cfg.Provider.Endpoint)
		if err != nil {
			return "", err
		}
		cached, err := providers.NewCachedProvider(provider, cfg.Provider.CacheSize)
		if err != nil {
			return "", err
		}
		return cached.GetCode(cliCtx.Context, arg)
	}
	if raw, err := os.ReadFile(arg); err == nil {
		return strings.TrimSpace(string(raw)), nil
	}
	return arg, nil
}

func buildLoader() (loaders.SignatureLoader, error) {
	var chain []loaders.SignatureLoader
	if cfg.Loader.OpenChain {
		chain = append(chain, loaders.NewOpenChainLoader())
	}
	if cfg.Loader.FourByte {
		chain = append(chain, loaders.NewFourByteLoader())
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("--lookup requires at least one signature database enabled")
	}
	return loaders.NewCachedLoader(loaders.NewMultiLoader(chain...), cfg.Loader.CacheSize)
}

func runAbi(cliCtx *cli.Context) error {
	bytecode, err := resolveBytecode(cliCtx)
	if err != nil {
		return err
	}
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return err
	}
	records := abi.FromProgram(p)

	if doLookup {
		loader, err := buildLoader()
		if err != nil {
			return err
		}
		if err := loaders.ResolveRecords(cliCtx.Context, loader, records); err != nil {
			log.Warn("Signature resolution incomplete", "err", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runDisasm(cliCtx *cli.Context) error {
	bytecode, err := resolveBytecode(cliCtx)
	if err != nil {
		return err
	}
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return err
	}

	fmt.Printf("blocks: %d\n", len(p.Dests))
	offsets := make([]int, 0, len(p.Dests))
	for off := range p.Dests {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	for _, off := range offsets {
		fn := p.Dests[off]
		tags := make([]string, 0, fn.OpTags.Cardinality())
		for _, op := range fn.OpTags.ToSlice() {
			tags = append(tags, op.String())
		}
		sort.Strings(tags)
		guard := ""
		if p.IsNotPayable(off) {
			guard = " [nonpayable-guard]"
		}
		fmt.Printf("  0x%04x step=%d end=%d jumps=%v tags=%s%s\n",
			off, fn.Step, fn.End, fn.Jumps, strings.Join(tags, ","), guard)
	}

	fmt.Printf("selectors: %d\n", len(p.Jumps))
	for _, sel := range p.Selectors() {
		fmt.Printf("  %s -> 0x%04x\n", sel, p.Jumps[sel])
	}

	fmt.Printf("event candidates: %d\n", len(p.EventCandidates))
	for _, topic := range p.EventCandidates {
		fmt.Printf("  %s\n", topic)
	}
	return nil
}

func runDot(cliCtx *cli.Context) error {
	bytecode, err := resolveBytecode(cliCtx)
	if err != nil {
		return err
	}
	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		return err
	}
	fmt.Println(p.Dot())
	return nil
}

func runServe(cliCtx *cli.Context) error {
	cfg.API.CORSOrigins = corsOrigins.Value()
	if err := cfg.Validate(); err != nil {
		return err
	}
	server := api.NewServer(cfg.API)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(cliCtx.Context, 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
