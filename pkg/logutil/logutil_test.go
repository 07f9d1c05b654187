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

package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogConfigAdjust(t *testing.T) {
	cfg := &LogConfig{}
	cfg.Adjust()
	require.Equal(t, "info", cfg.Level)
	require.Equal(t, "console", cfg.Format)
	require.Equal(t, 512, cfg.MaxSize)

	custom := &LogConfig{Level: "debug", Format: "json", MaxSize: 8}
	custom.Adjust()
	require.Equal(t, "debug", custom.Level)
	require.Equal(t, 8, custom.MaxSize)
}

func TestGlobalLoggerInitialized(t *testing.T) {
	require.NotNil(t, GetGlobalLogger())
}

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helicon.log")
	SetupLogger(&LogConfig{Level: "debug", Format: "json", Filename: path})
	defer SetupLogger(&LogConfig{})

	Info("file sink check", QueryIdField("q-test"))
	require.NoError(t, GetGlobalLogger().Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "file sink check")
	require.Contains(t, string(data), "q-test")
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helicon.log")
	SetupLogger(&LogConfig{Level: "warn", Format: "json", Filename: path})
	defer SetupLogger(&LogConfig{})

	require.False(t, GetGlobalLogger().Core().Enabled(zapcore.InfoLevel))
	require.True(t, GetGlobalLogger().Core().Enabled(zapcore.ErrorLevel))

	Debugf("dropped %d", 1)
	Warnf("kept %d", 2)
	require.NoError(t, GetGlobalLogger().Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "dropped")
	require.Contains(t, string(data), "kept 2")
}
