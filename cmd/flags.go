package cmd

import (
	"flag"
)

type Flags struct {
	Collect bool
	City    string
	Summary bool
	Serve   bool
	Config  string
	Version bool
}

func ParseFlags() Flags {
	flags := Flags{}

	flag.BoolVar(&flags.Collect, "collect", false, "Run a single collection cycle and exit")
	flag.BoolVar(&flags.Collect, "c", false, "Run a single collection cycle and exit (shorthand)")
	flag.StringVar(&flags.City, "city", "", "Limit -collect or -summary to one configured city")
	flag.BoolVar(&flags.Summary, "summary", false, "Print stored sentiment summaries and exit")
	flag.BoolVar(&flags.Serve, "serve", false, "Run the scheduler and dashboard API")
	flag.StringVar(&flags.Config, "config", "", "Path to config file (defaults to the standard location)")
	flag.BoolVar(&flags.Version, "v", false, "Display version information")
	flag.BoolVar(&flags.Version, "version", false, "Display version information")

	flag.Parse()

	return flags
}
