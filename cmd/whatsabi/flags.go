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
	"github.com/urfave/cli/v2"

	"github.com/kila6/whatsabi/conf"
)

var (
	cfg = conf.DefaultConfig()

	corsOrigins = cli.NewStringSlice()
	doLookup    bool
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "data.dir",
		Usage:       "Directory for logs",
		Category:    "NODE",
		Value:       cfg.DataDir,
		Destination: &cfg.DataDir,
	},
	&cli.StringFlag{
		Name:        "log.level",
		Usage:       "Log level (trace, debug, info, warn, error)",
		Category:    "LOGGING",
		Value:       cfg.Logger.Level,
		Destination: &cfg.Logger.Level,
	},
	&cli.StringFlag{
		Name:        "log.file",
		Usage:       "Log file name (empty logs to console only)",
		Category:    "LOGGING",
		Value:       cfg.Logger.LogFile,
		Destination: &cfg.Logger.LogFile,
	},
}

var rpcFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "rpc",
		Usage:       "JSON-RPC endpoint used to fetch code for addresses (http(s):// or ws(s)://)",
		Category:    "RPC",
		Value:       cfg.Provider.Endpoint,
		Destination: &cfg.Provider.Endpoint,
	},
	&cli.IntFlag{
		Name:        "rpc.cache",
		Usage:       "Entries kept in the address→code cache",
		Category:    "RPC",
		Value:       cfg.Provider.CacheSize,
		Destination: &cfg.Provider.CacheSize,
	},
}

var lookupFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:        "lookup",
		Usage:       "Resolve selectors and topics against public signature databases",
		Category:    "LOOKUP",
		Value:       false,
		Destination: &doLookup,
	},
	&cli.BoolFlag{
		Name:        "lookup.openchain",
		Usage:       "Query the openchain.xyz signature database",
		Category:    "LOOKUP",
		Value:       cfg.Loader.OpenChain,
		Destination: &cfg.Loader.OpenChain,
	},
	&cli.BoolFlag{
		Name:        "lookup.4byte",
		Usage:       "Query the 4byte.directory signature database",
		Category:    "LOOKUP",
		Value:       cfg.Loader.FourByte,
		Destination: &cfg.Loader.FourByte,
	},
}

var serveFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "api.listen",
		Usage:       "Listen address for the HTTP service",
		Category:    "API",
		Value:       cfg.API.ListenAddr,
		Destination: &cfg.API.ListenAddr,
	},
	&cli.StringSliceFlag{
		Name:        "api.cors",
		Usage:       "Allowed CORS origins (repeatable, * for all)",
		Category:    "API",
		Value:       cli.NewStringSlice(),
		Destination: corsOrigins,
	},
}
