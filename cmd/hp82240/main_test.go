package main

import (
	"os"
	"path/filepath"
	"testing"

	"hp82240-service/internal/config"
)

func TestFileSourcePrintsAndExits(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HP82240_PAPER_OUTPUT_DIR", filepath.Join(dir, "out"))

	input := filepath.Join(dir, "job.yaml")
	doc := "hp82240PrintData:\n  - text: \"LINE ONE\"\n  - linefeed: hp\n  - text: \"LINE TWO\"\n  - linefeed: lf\n"
	if err := os.WriteFile(input, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	flags := config.Flags("hp82240")
	if err := flags.Parse([]string{"-i", input}); err != nil {
		t.Fatal(err)
	}

	app, err := NewApplication(flags)
	if err != nil {
		t.Fatal(err)
	}
	if app.server != nil || app.database != nil {
		t.Fatal("server or archive started without being enabled")
	}
	if err := app.Start(); err != nil {
		t.Fatal(err)
	}

	if got := app.printer.Printed(); got != 2 {
		t.Errorf("printed %d lines, want 2", got)
	}
	text, err := os.ReadFile(filepath.Join(dir, "out", "Hp8224-Text.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "LINE ONE\nLINE TWO\n" {
		t.Errorf("text file = %q", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "Hp8224-Image.png")); err != nil {
		t.Errorf("image file: %v", err)
	}
}

func TestNoneSourceRequiresServer(t *testing.T) {
	chdir(t, t.TempDir())

	flags := config.Flags("hp82240")
	if err := flags.Parse([]string{"--source", "none"}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewApplication(flags); err == nil {
		t.Fatal("expected a configuration error")
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
