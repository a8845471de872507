//go:build linux

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
)

func TestInputGroupHint(t *testing.T) {
	denied := fmt.Errorf("open device /dev/input/event3: %w", fs.ErrPermission)
	if err := withInputGroupHint(denied, "/dev/input/event3"); !strings.Contains(err.Error(), "input group") {
		t.Errorf("expected hint for permission error, got %v", err)
	}
	if err := withInputGroupHint(denied, ""); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("expected wrapped error to keep its cause, got %v", err)
	}

	missing := errors.New("open device /dev/input/event99: no such file")
	if err := withInputGroupHint(missing, "/dev/input/event99"); err != missing {
		t.Errorf("expected error unchanged for a configured device, got %v", err)
	}
	if err := withInputGroupHint(errors.New("no keyboard device found"), ""); !strings.Contains(err.Error(), "input group") {
		t.Errorf("expected hint when auto-detect finds nothing, got %v", err)
	}
}

func TestSilenceStderrRunsFn(t *testing.T) {
	want := errors.New("init failed")
	if err := silenceStderr(func() error { return want }); err != want {
		t.Errorf("expected fn error returned, got %v", err)
	}

	// Stderr still works afterwards.
	if _, err := fmt.Fprint(os.Stderr, ""); err != nil {
		t.Errorf("expected stderr restored, got %v", err)
	}
}
