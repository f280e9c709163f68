package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hp82240-service/internal/sender"
)

func writePrintFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.yaml")
	doc := "title: hello\nhp82240PrintData:\n  - text: \"HELLO\"\n  - linefeed: hp\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func captureStdout(t *testing.T) func() []byte {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdout")
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = f
	return func() []byte {
		os.Stdout = orig
		f.Close()
		data, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
}

func TestRunUsage(t *testing.T) {
	chdir(t, t.TempDir())
	file := writePrintFile(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no port", []string{"-i", file}},
		{"no file", []string{"-p", "stdout"}},
		{"device path", []string{"-p", "/dev/ttyUSB0", "-i", file}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestRunStdout(t *testing.T) {
	chdir(t, t.TempDir())
	file := writePrintFile(t)

	done := captureStdout(t)
	code := run([]string{"-p", "STDOUT", "-i", file})
	out := done()

	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if want := []byte("HELLO\x04"); !bytes.Equal(out, want) {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRunCharList(t *testing.T) {
	done := captureStdout(t)
	code := run([]string{"--charlist"})
	out := done()

	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !bytes.Contains(out, []byte("hp82240PrintData")) {
		t.Errorf("listing missing print data: %.80q", out)
	}
}

func TestDurationOr(t *testing.T) {
	if got := durationOr(0, sender.DefaultLineDelay); got != sender.DefaultLineDelay {
		t.Errorf("zero gave %v", got)
	}
	if got := durationOr(time.Second, sender.DefaultLineDelay); got != time.Second {
		t.Errorf("set value gave %v", got)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
