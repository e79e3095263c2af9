package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: 0},
		{name: "Console output mode", jsonOutput: false, verbosity: 0},
		{name: "Console debug", jsonOutput: false, verbosity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			assert.Equal(t, VerbosityToLevel(tt.verbosity) <= zapcore.DebugLevel,
				Logger.Desugar().Core().Enabled(zapcore.DebugLevel))

			Cleanup()
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityTrace))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Info (-v)", LevelName(1))
	assert.Equal(t, "Trace (-vvv+)", LevelName(5))
	assert.Equal(t, "Unknown", LevelName(-2))
}

func TestShouldOutput(t *testing.T) {
	tests := []struct {
		verbosity int
		category  OutputCategory
		want      bool
	}{
		{0, OutputResults, true},
		{0, OutputSummary, true},
		{0, OutputRunLifecycle, false},
		{1, OutputRunLifecycle, true},
		{1, OutputTiming, false},
		{2, OutputStoreWrite, true},
		{2, OutputChildOutput, false},
		{3, OutputChildOutput, true},
		{2, OutputCategory(99), false},
		{3, OutputCategory(99), true},
	}

	for _, tt := range tests {
		t.Run(CategoryName(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldOutput(tt.verbosity, tt.category))
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithComponent(ctx, "sweep.invoker")

	LoggerFromContext(ctx, base).Infow("Invocation finished", FieldExitCode, 0)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-123", fields[FieldRunID])
	assert.Equal(t, "sweep.invoker", fields[FieldComponent])
	assert.EqualValues(t, 0, fields[FieldExitCode])
}

func TestLoggerFromContextEmpty(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	assert.Same(t, base, LoggerFromContext(context.Background(), base))
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestLoggerFromContextFallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger
	Logger = zap.New(core).Sugar()
	defer func() { Logger = prev }()

	LoggerFromContext(WithRunID(context.Background(), "r1"), nil).Warnw("memory low")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r1", logs.All()[0].ContextMap()[FieldRunID])
}

func TestPackageHelpersTolerateNilLogger(t *testing.T) {
	prev := Logger
	Logger = nil
	defer func() { Logger = prev }()

	assert.NotPanics(t, func() {
		Infow("a")
		Warnw("b")
		Errorw("c")
		Debugw("d")
		Cleanup()
	})
}
