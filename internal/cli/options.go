// Package cli parses sqlsift's command-line flags.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Options holds the parsed command-line flags for one sqlsift invocation.
type Options struct {
	ConfigPath   string
	Format       string
	StrictConfig bool
	Verbose      bool
	Args         []string
}

// Parse interprets args (normally os.Args[1:]) into Options.
func Parse(args []string) (Options, error) {
	const defaultConfig = "sqlsift.toml"

	opts := Options{
		ConfigPath: defaultConfig,
		Format:     "text",
	}

	fs := flag.NewFlagSet("sqlsift", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", opts.ConfigPath, "Path to configuration file")
	fs.StringVar(&opts.Format, "format", opts.Format, "Diagnostic output format: text or json")
	fs.BoolVar(&opts.StrictConfig, "strict-config", false, "Treat configuration warnings as errors")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.Verbose, "v", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		usage := Usage(fs)
		return Options{}, fmt.Errorf("%w\n\n%s", err, usage)
	}

	if opts.Format != "text" && opts.Format != "json" {
		return Options{}, fmt.Errorf("--format must be %q or %q, got %q", "text", "json", opts.Format)
	}

	opts.Args = fs.Args()
	return opts, nil
}

// Usage renders fs's usage text, used to decorate parse errors.
func Usage(fs *flag.FlagSet) string {
	if fs == nil {
		return ""
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "Usage of %s:\n", fs.Name())
	out := fs.Output()
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(out)
	return buf.String()
}

// IsHelp reports whether err originated from -h/-help.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
