package cliapp

import "flag"

const defaultConfigPath = "./pyamend.toml"

type cliOptions struct {
	configPath   string
	fix          bool
	unsafe       bool
	dryRun       bool
	sarifPath    string
	watch        bool
	ui           bool
	history      int
	includeTests bool
	verbose      bool
	version      bool
	args         []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("pyamend", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.fix, "fix", false, "Apply safe fixes in place")
	fs.BoolVar(&opts.unsafe, "unsafe", false, "Also apply suggested fixes (requires -fix)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Report fixes without writing files")
	fs.StringVar(&opts.sarifPath, "sarif", "", "Write a SARIF report to the given path")
	fs.BoolVar(&opts.watch, "watch", false, "Re-analyze files as they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.IntVar(&opts.history, "history", 0, "List the N most recent runs and exit")
	fs.BoolVar(&opts.includeTests, "include-tests", false, "Also analyze test files")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
