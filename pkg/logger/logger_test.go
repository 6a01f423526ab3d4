package logger_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	ncontext "github.com/pragma/screennav/pkg/context"
	"github.com/pragma/screennav/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestLogger_WithScreen(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.WithScreen("settings").Info("showing screen")

	output := buf.String()
	if !strings.Contains(output, "[settings]") {
		t.Errorf("expected screen prefix in log output, got %q", output)
	}
	if !strings.Contains(output, "showing screen") {
		t.Errorf("expected message in log output, got %q", output)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("transition",
		logger.WithField("phase", "show"),
		logger.WithField("depth", 2),
		logger.WithError(errors.New("boom")),
	)

	output := buf.String()
	if !strings.Contains(output, "{depth=2, error=boom, phase=show}") {
		t.Errorf("expected sorted fields, got %q", output)
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("scenario finished")

	if !strings.Contains(buf.String(), "scenario finished") {
		t.Error("expected success message in log output")
	}
}

func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("error", &buf)

	log.Debug("should not appear")
	log.Info("should not appear")
	log.Warn("should not appear")
	log.Error("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Error("lower level logs should not appear with error level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("error level log should appear")
	}
}

func TestLogger_NilOutputDiscards(t *testing.T) {
	log := logger.CreateLoggerWithOutput("debug", nil)
	log.Info("nobody listens")
	logger.NewNopLogger().Error("nobody listens either")
}

func TestWithContext_AddsOperationFields(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("info", &buf)

	ctx := ncontext.WithOperationID(context.Background(), "op_fixed")
	ctx = ncontext.WithOperation(ctx, "open")

	logger.WithContext(ctx, base).WithScreen("menu").Info("opened")

	output := buf.String()
	for _, want := range []string{"op_id=op_fixed", "op=open", "[menu]", "opened"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output %q", want, output)
		}
	}
}
