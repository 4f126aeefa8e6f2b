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

package conf

import "fmt"

// LoggerConfig controls log output and file rotation.
//
// Rotation policy:
//   - a file over MaxSize MB is cut over to a new one
//   - old files beyond MaxBackups or older than MaxAge days are removed
//   - with Compress enabled, rotated files are gzipped
type LoggerConfig struct {
	// LogFile is the log file name. Empty means console only. A relative
	// name is placed under <data dir>/log.
	LogFile string `json:"name" yaml:"name"`

	// Level is one of: trace, debug, info, warn, error, fatal.
	Level string `json:"level" yaml:"level"`

	// MaxSize is the rotation threshold for a single file, in MB.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups caps the number of rotated files kept. Zero keeps all
	// (still subject to MaxAge).
	MaxBackups int `json:"max_count" yaml:"max_count"`

	// MaxAge is the retention period for rotated files, in days. Zero
	// disables age-based removal.
	MaxAge int `json:"max_day" yaml:"max_day"`

	// Compress gzips rotated files.
	Compress bool `json:"compress" yaml:"compress"`

	// LocalTime names rotated files with local time instead of UTC.
	LocalTime bool `json:"local_time" yaml:"local_time"`

	// Console mirrors file output to the console.
	Console bool `json:"console" yaml:"console"`

	// JSONFormat switches output to JSON lines when a log file is set; the
	// console mirror, if enabled, gets the same format.
	JSONFormat bool `json:"json_format" yaml:"json_format"`
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogFile:    "",
		Level:      "info",
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
		LocalTime:  true,
		Console:    true,
		JSONFormat: true,
	}
}

// Validate checks the configuration for usable values.
func (c *LoggerConfig) Validate() error {
	if c.LogFile != "" && c.MaxSize <= 0 {
		return fmt.Errorf("log max_size must be positive, got %d", c.MaxSize)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("log max_count must not be negative, got %d", c.MaxBackups)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("log max_day must not be negative, got %d", c.MaxAge)
	}
	return nil
}
