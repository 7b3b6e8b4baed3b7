package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureLog(t *testing.T, mask []string, emit func(ctx context.Context)) map[string]any {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogging(&buf, slog.LevelDebug, "dinebook-test", nil, NewMasker(mask))

	emit(SetCorrelationID(context.Background(), "cid-123"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return line
}

func TestSetupLogging_AddsContextAndRenames(t *testing.T) {
	// Act
	line := captureLog(t, nil, func(ctx context.Context) {
		slog.InfoContext(ctx, "otp requested", "email", "a@b.test")
	})

	// Assert
	if line["_cID"] != "cid-123" {
		t.Fatalf("_cID = %v", line["_cID"])
	}
	if line["service"] != "dinebook-test" {
		t.Fatalf("service = %v", line["service"])
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("missing ts key: %v", line)
	}
	if line["severity"] != "INFO" {
		t.Fatalf("severity = %v", line["severity"])
	}
}

func TestSetupLogging_MasksFields(t *testing.T) {
	line := captureLog(t, []string{"otp", "newPassword"}, func(ctx context.Context) {
		slog.InfoContext(ctx, "body",
			"otp", "123456",
			"body", `{"email":"a@b.test","newPassword":"hunter22"}`,
		)
	})

	if line["otp"] != Redacted {
		t.Fatalf("otp = %v, want redacted", line["otp"])
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(line["body"].(string)), &body); err != nil {
		t.Fatalf("body = %v", line["body"])
	}
	if body["newPassword"] != Redacted || body["email"] != "a@b.test" {
		t.Fatalf("body = %v", body)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != slog.LevelDebug {
		t.Fatalf("debug not parsed")
	}
	if ParseLevel("nonsense") != slog.LevelInfo {
		t.Fatalf("fallback is not info")
	}
}
