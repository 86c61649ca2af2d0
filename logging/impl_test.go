package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func newBufferLogger(name string) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewBlankLogger(name)
	logger.AddAppender(NewWriterAppender(buf))
	return logger, buf
}

func readLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, buf := newBufferLogger("skeleton")

	logger.Info("evaluated")
	parts := readLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2006-01-02T15:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "skeleton")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "evaluated")

	logger.Debugf("visited %d nodes", 3)
	parts = readLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "DEBUG")
	test.That(t, parts[4], test.ShouldEqual, "visited 3 nodes")

	logger.Debugw("slow", "nodes", 12, "order", "depth")
	parts = readLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 6)
	fields := map[string]any{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields, test.ShouldResemble, map[string]any{"nodes": 12., "order": "depth"})

	logger.Debugw("unpaired", "key")
	parts = readLine(t, buf)
	test.That(t, parts[5], test.ShouldContainSubstring, "unpaired log key")
}

func TestLevels(t *testing.T) {
	logger, buf := newBufferLogger("levels")
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(GetName(ctx)), test.ShouldEqual, 6)
	test.That(t, GetName(EnableDebugMode(context.Background(), "trace")), test.ShouldEqual, "trace")
	test.That(t, IsDebugMode(context.Background()), test.ShouldBeFalse)
	logger.CDebugf(ctx, "shown %s", "anyway")
	parts := readLine(t, buf)
	test.That(t, parts[4], test.ShouldEqual, "shown anyway")

	logger.Error("shown")
	parts = readLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")

	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG}, {"INFO", INFO}, {"warning", WARN}, {"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, WARN.AsZap(), test.ShouldEqual, zapcore.WarnLevel)
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("kinetree")
	sub := logger.Sublogger("ik")
	sub.Info("solving")
	parts := readLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "kinetree.ik")

	// the sublogger level is independent from the parent
	sub.SetLevel(ERROR)
	sub.Info("hidden")
	logger.Info("shown")
	parts = readLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "kinetree")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("visit", "node", 4)
	logger.Sublogger("fk").Info("done")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("visit").Len(), test.ShouldEqual, 1)
	entry := logs.All()[1]
	test.That(t, entry.LoggerName, test.ShouldEqual, "fk")
	test.That(t, entry.Level, test.ShouldEqual, zapcore.InfoLevel)

	logger.AsZap().Infow("through zap", "ok", true)
	test.That(t, logs.FilterMessage("through zap").Len(), test.ShouldEqual, 1)
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestGlobal(t *testing.T) {
	old := Global()
	defer ReplaceGlobal(old)
	logger := NewBlankLogger("global")
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
