package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/thrasher-corp/tallerd/common/convert"
)

var (
	testConfigEnabled = &Config{
		Enabled: convert.BoolPtr(true),
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|DEBUG|WARN|ERROR",
			Output: "console",
		},
		AdvancedSettings: advancedSettings{
			ShowLogSystemName: convert.BoolPtr(true),
			Spacer:            " | ",
			TimeStampFormat:   timestampFormat,
			Headers: headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
	testConfigDisabled = &Config{
		Enabled: convert.BoolPtr(false),
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|DEBUG|WARN|ERROR",
			Output: "console",
		},
	}
)

func TestMain(m *testing.M) {
	GlobalLogConfig = testConfigEnabled
	SetupGlobalLogger()
	os.Exit(m.Run())
}

func TestSplitLevel(t *testing.T) {
	t.Parallel()
	levelsInfoDebug := splitLevel("INFO|DEBUG")

	expected := Levels{
		Info:  true,
		Debug: true,
		Warn:  false,
		Error: false,
	}

	if levelsInfoDebug != expected {
		t.Fatalf("splitLevel() returned invalid data expected: %+v got: %+v",
			expected, levelsInfoDebug)
	}
}

func TestNewSubLogger(t *testing.T) {
	t.Parallel()
	_, err := NewSubLogger("")
	if !errors.Is(err, errEmptyLoggerName) {
		t.Fatalf("received: %v expected: %v", err, errEmptyLoggerName)
	}

	sl, err := NewSubLogger("TESTERINO")
	if err != nil {
		t.Fatal(err)
	}
	if sl == nil {
		t.Fatal("expected a sublogger")
	}

	_, err = NewSubLogger("TESTERINO")
	if !errors.Is(err, ErrSubLoggerAlreadyRegistered) {
		t.Fatalf("received: %v expected: %v", err, ErrSubLoggerAlreadyRegistered)
	}
}

func TestAddWriter(t *testing.T) {
	t.Parallel()
	mw, err := MultiWriter()
	if err != nil {
		t.Fatal(err)
	}
	err = mw.Add(io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	err = mw.Add(io.Discard)
	if !errors.Is(err, errWriterAlreadyLoaded) {
		t.Fatalf("received: %v expected: %v", err, errWriterAlreadyLoaded)
	}
	if total := len(mw.writers); total != 1 {
		t.Fatalf("expected 1 writer got: %v", total)
	}
}

func TestRemoveWriter(t *testing.T) {
	t.Parallel()
	mw, err := MultiWriter(os.Stdout, os.Stderr)
	if err != nil {
		t.Fatal(err)
	}

	err = mw.Remove(os.Stdout)
	if err != nil {
		t.Fatal(err)
	}
	err = mw.Remove(io.Discard)
	if !errors.Is(err, errWriterNotFound) {
		t.Fatalf("received: %v expected: %v", err, errWriterNotFound)
	}
	if total := len(mw.writers); total != 1 {
		t.Fatalf("expected 1 writer got: %v", total)
	}
}

func TestGetWriters(t *testing.T) {
	t.Parallel()
	_, err := getWriters(nil)
	if !errors.Is(err, errSubloggerConfigIsNil) {
		t.Fatalf("received: %v expected: %v", err, errSubloggerConfigIsNil)
	}

	outputWriters := "stDout|stderr|filE"
	_, err = getWriters(&SubLoggerConfig{Output: outputWriters})
	if err != nil {
		t.Fatal(err)
	}

	outputWriters = "stdout|stderr|noobs"
	_, err = getWriters(&SubLoggerConfig{Output: outputWriters})
	if !errors.Is(err, errUnhandledOutputWriter) {
		t.Fatalf("received: %v expected: %v", err, errUnhandledOutputWriter)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()
	_, err := Level("LOG")
	if err != nil {
		t.Errorf("Failed to get log %s levels skipping", err)
	}

	_, err = Level("totallyinvalidlogger")
	if err == nil {
		t.Error("Expected error on invalid logger")
	}
}

func TestSetLevel(t *testing.T) {
	t.Parallel()
	newLevel, err := SetLevel("LOG", "ERROR")
	if err != nil {
		t.Skipf("Failed to get log %s levels skipping", err)
	}

	if newLevel.Info || newLevel.Debug || newLevel.Warn {
		t.Error("failed to set level correctly")
	}

	if !newLevel.Error {
		t.Error("failed to set level correctly")
	}

	_, err = SetLevel("abc12345556665", "ERROR")
	if err == nil {
		t.Error("SetLevel() Should return error on invalid logger")
	}
}

func TestLoggerWrites(t *testing.T) {
	w := &bytes.Buffer{}

	registerNewSubLogger("TESTWRITES")
	sl := SubLoggers["TESTWRITES"]
	sl.SetOutput(w)

	Infof(sl, "%v", "hello")
	if !strings.Contains(w.String(), "hello") {
		t.Errorf("expected to see output, got %q", w.String())
	}
	w.Reset()

	Warnln(sl, "careful now")
	if !strings.Contains(w.String(), "careful now") {
		t.Errorf("expected to see output, got %q", w.String())
	}
	w.Reset()

	Errorf(sl, "oh %s", "no")
	if !strings.Contains(w.String(), "oh no") {
		t.Errorf("expected to see output, got %q", w.String())
	}
}

func TestDisabledLoggerDropsEvents(t *testing.T) {
	w := &bytes.Buffer{}
	registerNewSubLogger("TESTDISABLED")
	sl := SubLoggers["TESTDISABLED"]
	sl.SetOutput(w)

	RWM.Lock()
	GlobalLogConfig = testConfigDisabled
	RWM.Unlock()
	defer func() {
		RWM.Lock()
		GlobalLogConfig = testConfigEnabled
		RWM.Unlock()
	}()

	Info(sl, "should not appear")
	if w.Len() != 0 {
		t.Errorf("expected no output, got %q", w.String())
	}
}

func TestLoggerConcurrency(t *testing.T) {
	registerNewSubLogger("TESTCONCURRENCY")
	sl := SubLoggers["TESTCONCURRENCY"]
	sl.SetOutput(io.Discard)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Infoln(sl, "concurrent write")
		}()
	}
	wg.Wait()
}
