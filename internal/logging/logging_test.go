package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogfmtOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Debug)
	log.Warn("frame rejected",
		F("sequence", 7),
		F("err", errors.New("bad payload")),
		F("issues", "kind missing; no action"),
		F("recoverable", true),
	)

	line := strings.TrimSuffix(buf.String(), "\n")
	for _, want := range []string{
		"level=warn",
		`msg="frame rejected"`,
		"sequence=7",
		`err="bad payload"`,
		`issues="kind missing; no action"`,
		"recoverable=true",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("output missing %q: %s", want, line)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Warn)
	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("below-threshold output: %s", buf.String())
	}
	log.Error("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("error line missing: %s", buf.String())
	}
	if log.Enabled(Debug) || !log.Enabled(Error) {
		t.Fatalf("Enabled disagrees with filtering")
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Info).With(F("doc", "report-7"))
	log.Info("attached")
	if !strings.Contains(buf.String(), "doc=report-7") {
		t.Fatalf("bound field missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"bogus":   Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
