// Copyright 2024 Helicon DB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/logutil"
)

// defaultInCardLimit is the build cardinality above which a hybrid
// IN_OR_BLOOM runtime filter becomes a bloom filter.
const defaultInCardLimit = 10000

// RuntimeFilterConfig controls runtime filter generation on the hash join
// build side.
type RuntimeFilterConfig struct {
	// Disabled turns runtime filter generation off globally
	Disabled bool `toml:"disabled"`
	// InCardLimit is the max build cardinality for IN filters; beyond it a
	// hybrid filter degrades to a bloom filter
	InCardLimit int64 `toml:"in-card-limit"`
	// BloomFalsePositive is the target false positive probability of bloom
	// runtime filters.  Zero picks a rate from the build cardinality, the
	// bigger the build the tighter the rate.
	BloomFalsePositive float64 `toml:"bloom-false-positive"`
}

// Config is the engine configuration, loaded from a toml file.
type Config struct {
	Log           logutil.LogConfig   `toml:"log"`
	RuntimeFilter RuntimeFilterConfig `toml:"runtime-filter"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Adjust()
	return cfg
}

func (cfg *Config) Adjust() {
	cfg.Log.Adjust()
	if cfg.RuntimeFilter.InCardLimit == 0 {
		cfg.RuntimeFilter.InCardLimit = defaultInCardLimit
	}
}

// Load reads and validates a toml configuration file.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfig(ctx, "parse %s: %s", path, err)
	}
	cfg.Adjust()
	if cfg.RuntimeFilter.InCardLimit < 0 {
		return nil, moerr.NewBadConfig(ctx, "runtime-filter.in-card-limit must be non-negative")
	}
	if cfg.RuntimeFilter.BloomFalsePositive < 0 || cfg.RuntimeFilter.BloomFalsePositive >= 1 {
		return nil, moerr.NewBadConfig(ctx, "runtime-filter.bloom-false-positive must be in [0, 1)")
	}
	return cfg, nil
}
