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

// Package conf holds the configuration structures shared by the CLI and
// the HTTP service.
package conf

import "fmt"

// ProviderConfig configures the bytecode provider.
type ProviderConfig struct {
	// Endpoint is the JSON-RPC endpoint, http(s):// or ws(s)://.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// CacheSize is the number of address→code entries kept in memory.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// LoaderConfig configures signature database lookups.
type LoaderConfig struct {
	// OpenChain enables the openchain.xyz signature database.
	OpenChain bool `json:"openchain" yaml:"openchain"`

	// FourByte enables the 4byte.directory signature database.
	FourByte bool `json:"fourbyte" yaml:"fourbyte"`

	// CacheSize is the number of selector→signature entries kept in
	// memory.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// APIConfig configures the HTTP service.
type APIConfig struct {
	// ListenAddr is the host:port the service binds to.
	ListenAddr string `json:"listen" yaml:"listen"`

	// CORSOrigins lists the allowed cross-origin domains. Empty allows
	// none; a single "*" allows all.
	CORSOrigins []string `json:"cors" yaml:"cors"`
}

// Config is the top-level configuration.
type Config struct {
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	Logger   LoggerConfig   `json:"logger" yaml:"logger"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Loader   LoaderConfig   `json:"loader" yaml:"loader"`
	API      APIConfig      `json:"api" yaml:"api"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir: ".",
		Logger:  DefaultLoggerConfig(),
		Provider: ProviderConfig{
			CacheSize: 1024,
		},
		Loader: LoaderConfig{
			OpenChain: true,
			FourByte:  true,
			CacheSize: 4096,
		},
		API: APIConfig{
			ListenAddr: "127.0.0.1:8600",
		},
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if c.Provider.CacheSize < 0 {
		return fmt.Errorf("provider cache_size must not be negative, got %d", c.Provider.CacheSize)
	}
	if c.Loader.CacheSize < 0 {
		return fmt.Errorf("loader cache_size must not be negative, got %d", c.Loader.CacheSize)
	}
	return nil
}
