package quizdrill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestVerboseLog(t *testing.T) {
	core, logs := observer.New(atomicLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() {
		SetLogger(nil)
		SetVerbose(false)
	})

	SetVerbose(false)
	VerboseLog("hidden", zap.Int("question", 1))
	assert.Zero(t, logs.Len())

	SetVerbose(true)
	VerboseLog("shown", zap.Int("question", 2))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "shown", entries[0].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, int64(2), entries[0].ContextMap()["question"])
	}
}

func TestStudyLogsBankReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	newTestStudy(t)
	assert.Equal(t, 1, logs.FilterMessage("question bank replaced").Len())
}
