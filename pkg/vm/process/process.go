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

package process

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/helicondb/helicon/pkg/config"
	"github.com/helicondb/helicon/pkg/logutil"
	"github.com/helicondb/helicon/pkg/vm/message"
)

const DefaultBatchSize = 8192

// Process holds the per-execution-instance state an operator needs:
// query context, config limits, the query's message board and logging.
// Sibling instances of one query share the same BaseProcess.
type Process struct {
	Ctx  context.Context
	Base *BaseProcess
}

type BaseProcess struct {
	// Id is the query id
	Id           string
	cfg          *config.RuntimeFilterConfig
	messageBoard *message.MessageBoard
	logger       *zap.Logger
}

func New(ctx context.Context, cfg *config.RuntimeFilterConfig) *Process {
	if cfg == nil {
		cfg = &config.Default().RuntimeFilter
	}
	return &Process{
		Ctx: ctx,
		Base: &BaseProcess{
			Id:           uuid.NewString(),
			cfg:          cfg,
			messageBoard: message.NewMessageBoard(),
			logger:       logutil.GetGlobalLogger(),
		},
	}
}

// NewFromProc creates a sibling process sharing base state, for parallel
// instances of one build side.
func NewFromProc(proc *Process, ctx context.Context) *Process {
	return &Process{
		Ctx:  ctx,
		Base: proc.Base,
	}
}

func (proc *Process) QueryId() string {
	return proc.Base.Id
}

func (proc *Process) SetQueryId(id string) {
	proc.Base.Id = id
}

func (proc *Process) GetMessageBoard() *message.MessageBoard {
	return proc.Base.messageBoard
}

// RuntimeFilterInLimit is the build cardinality above which a hybrid
// runtime filter degrades to a bloom filter.
func (proc *Process) RuntimeFilterInLimit() int64 {
	return proc.Base.cfg.InCardLimit
}

func (proc *Process) RuntimeFilterBloomFalsePositive() float64 {
	return proc.Base.cfg.BloomFalsePositive
}

func (proc *Process) RuntimeFilterDisabled() bool {
	return proc.Base.cfg.Disabled
}

// log does logging, just for Info/Error/Warn/Debug
func (proc *Process) log(level zapcore.Level, msg string, fields ...zap.Field) {
	if ce := proc.Base.logger.Check(level, msg); ce != nil {
		fields = append(fields, logutil.QueryIdField(proc.Base.Id))
		ce.Write(fields...)
	}
}

func (proc *Process) Info(msg string, fields ...zap.Field) {
	proc.log(zap.InfoLevel, msg, fields...)
}

func (proc *Process) Error(msg string, fields ...zap.Field) {
	proc.log(zap.ErrorLevel, msg, fields...)
}

func (proc *Process) Warn(msg string, fields ...zap.Field) {
	proc.log(zap.WarnLevel, msg, fields...)
}

func (proc *Process) Debug(msg string, fields ...zap.Field) {
	proc.log(zap.DebugLevel, msg, fields...)
}
