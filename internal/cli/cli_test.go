package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"html"}},
		{"svg", []string{"svg"}},
		{"svg,dot", []string{"svg", "dot"}},
		{"svg, html", []string{"svg", "html"}},
	}

	for _, tt := range tests {
		got := parseFormats(tt.input)
		if len(got) != len(tt.want) {
			t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		output string
		dir    string
		want   string
	}{
		{"", "/tmp/myproject", "myproject"},
		{"diagram.svg", ".", "diagram"},
		{"diagram.html", ".", "diagram"},
		{"out/diagram", ".", "out/diagram"},
		{"archive.tar", ".", "archive.tar"}, // unknown extension kept
	}

	for _, tt := range tests {
		if got := outputBase(tt.output, tt.dir); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.output, tt.dir, got, tt.want)
		}
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	want := filepath.Join("/tmp/xdg-cache", "stackplot")
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "stackplot" {
		t.Errorf("root.Use = %q, want stackplot", root.Use)
	}

	for _, name := range []string{"generate", "serve", "cache", "completion"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestGenerateWritesFiles(t *testing.T) {
	project := t.TempDir()
	tf := `resource "aws_sqs_queue" "jobs" { name = "jobs" }`
	if err := os.WriteFile(filepath.Join(project, "main.tf"), []byte(tf), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "diagram.svg")

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"generate", project, "--format", "svg", "--no-cache", "--output", out})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if len(data) == 0 || string(data[:4]) != "<svg" {
		t.Errorf("output is not an SVG document")
	}
}

func TestGenerateInvalidFormat(t *testing.T) {
	project := t.TempDir()
	tf := `resource "aws_sqs_queue" "jobs" {}`
	if err := os.WriteFile(filepath.Join(project, "main.tf"), []byte(tf), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"generate", project, "--format", "png", "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Error("expected error for unsupported format")
	}
}
