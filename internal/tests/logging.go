package tests

import (
	"flag"
	"testing"

	"go.uber.org/zap"
)

var debugLogs = flag.Bool("debug", false, "Enable zap debug logging in tests")

// EnableDebugLogs installs a development zap logger when tests run with -debug.
// The integration test helpers call it so repository logs show up on failures.
func EnableDebugLogs(t *testing.T) {
	if debugLogs == nil || !*debugLogs {
		return
	}
	logger, err := zap.NewDevelopment(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = logger.Sync() })
	zap.ReplaceGlobals(logger)
}
