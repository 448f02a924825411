package main

import "flag"

// Options holds CLI options for the registry.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
}

// ParseFlags parses CLI flags from args and returns Options. Host and Port
// override the config file when set.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("eigen-registry", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.Host, "host", "", "Bind host (overrides config)")
	fs.IntVar(&opts.Port, "port", 0, "Bind port (overrides config)")
	_ = fs.Parse(args)
	return opts
}
