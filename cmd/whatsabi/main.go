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
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kila6/whatsabi/log"
	"github.com/kila6/whatsabi/params"
)

const usageText = `whatsabi [options] <command>

Reconstruct an approximate ABI for an EVM contract from its runtime
bytecode alone.

  whatsabi abi 0x6080...            ABI from a bytecode hex string
  whatsabi abi - < code.hex         ABI from stdin
  whatsabi abi --rpc $RPC 0xADDR    fetch code from a node, then analyze
  whatsabi abi --lookup 0x6080...   also resolve signatures
  whatsabi disasm 0x6080...         print the program summary
  whatsabi dot 0x6080...            jump graph in Graphviz format
  whatsabi serve                    run the HTTP analysis service`

func main() {
	app := &cli.App{
		Name:                   "whatsabi",
		Usage:                  "guess an ABI from EVM runtime bytecode",
		UsageText:              usageText,
		Version:                params.VersionWithCommit(params.GitCommit),
		Flags:                  globalFlags,
		Commands:               []*cli.Command{abiCommand, disasmCommand, dotCommand, serveCommand},
		UseShortOptionHandling: true,
		Suggest:                true,
		Before: func(ctx *cli.Context) error {
			return log.Init(cfg.DataDir, cfg.Logger)
		},
		Copyright: "Copyright 2023-2026 The whatsabi Authors",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
