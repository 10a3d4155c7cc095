package cli

import (
	"flag"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if opts.ConfigPath != "sqlsift.toml" {
		t.Fatalf("ConfigPath = %q, want %q", opts.ConfigPath, "sqlsift.toml")
	}
	if opts.Format != "text" {
		t.Fatalf("Format = %q, want %q", opts.Format, "text")
	}
	if opts.StrictConfig {
		t.Fatalf("StrictConfig = true, want false")
	}
	if opts.Verbose {
		t.Fatalf("Verbose = true, want false")
	}
	if len(opts.Args) != 0 {
		t.Fatalf("Args = %v, want empty", opts.Args)
	}
}

func TestParseOverrides(t *testing.T) {
	args := []string{
		"--config", "project.toml",
		"--format", "json",
		"--strict-config",
		"-v",
		"extra",
	}

	opts, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if opts.ConfigPath != "project.toml" {
		t.Fatalf("ConfigPath = %q, want %q", opts.ConfigPath, "project.toml")
	}
	if opts.Format != "json" {
		t.Fatalf("Format = %q, want %q", opts.Format, "json")
	}
	if !opts.StrictConfig {
		t.Fatalf("StrictConfig = false, want true")
	}
	if !opts.Verbose {
		t.Fatalf("Verbose = false, want true")
	}
	if len(opts.Args) != 1 || opts.Args[0] != "extra" {
		t.Fatalf("Args = %v, want [extra]", opts.Args)
	}
}

func TestParseInvalidFormat(t *testing.T) {
	_, err := Parse([]string{"--format", "xml"})
	if err == nil {
		t.Fatalf("Parse expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Fatalf("error = %q, want it to mention the bad value", err.Error())
	}
}

func TestParseInvalidFlag(t *testing.T) {
	_, err := Parse([]string{"--unknown"})
	if err == nil {
		t.Fatalf("Parse expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "Usage of sqlsift") {
		t.Fatalf("error = %q, want usage string", err.Error())
	}
}

func TestUsage(t *testing.T) {
	fs := flag.NewFlagSet("sqlsift", flag.ContinueOnError)
	fs.String("flag", "value", "test flag")

	usage := Usage(fs)
	if !strings.Contains(usage, "Usage of sqlsift:") {
		t.Fatalf("usage missing header: %q", usage)
	}
	if !strings.Contains(usage, "-flag") {
		t.Fatalf("usage missing flag definition: %q", usage)
	}
}
