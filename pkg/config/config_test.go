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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helicondb/helicon/pkg/common/moerr"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "helicon.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.RuntimeFilter.Disabled)
	require.EqualValues(t, 10000, cfg.RuntimeFilter.InCardLimit)
	// zero keeps the cardinality-derived bloom rate
	require.Zero(t, cfg.RuntimeFilter.BloomFalsePositive)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[runtime-filter]
in-card-limit = 2048
bloom-false-positive = 0.001
`)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.EqualValues(t, 2048, cfg.RuntimeFilter.InCardLimit)
	require.EqualValues(t, 0.001, cfg.RuntimeFilter.BloomFalsePositive)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[runtime-filter]
disabled = true
`)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.True(t, cfg.RuntimeFilter.Disabled)
	require.EqualValues(t, 10000, cfg.RuntimeFilter.InCardLimit)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative limit", "[runtime-filter]\nin-card-limit = -1\n"},
		{"bad probability", "[runtime-filter]\nbloom-false-positive = 1.5\n"},
		{"broken toml", "[runtime-filter\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tc.body))
			require.Error(t, err)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
