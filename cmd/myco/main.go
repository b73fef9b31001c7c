package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"myco/engine"
	"myco/hosterr"
)

const version = "0.1.0"

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version)
		os.Exit(0)
	}

	fs := flag.NewFlagSet("myco", flag.ExitOnError)
	port := fs.Int("port", 0, "inspector port (enables the inspector when set)")
	breakOnStart := fs.Bool("break-on-start", false, "pause at the first user statement once a debugger connects")
	waitForConnection := fs.Bool("wait-for-connection", false, "block until a debugger session attaches before running")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: myco [flags] <entry> [args...]\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(2)
	}

	opts := engine.RunOptions{
		EntryPath: fs.Arg(0),
		Argv:      fs.Args()[1:],
	}
	if *port != 0 || *breakOnStart || *waitForConnection {
		p := *port
		if p == 0 {
			p = 9229
		}
		opts.Debug = &engine.DebugOptions{
			Port:              p,
			BreakOnStart:      *breakOnStart,
			WaitForConnection: *waitForConnection,
		}
	}

	code, err := engine.Run(context.Background(), opts)
	if err != nil {
		reportFailure(err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// reportFailure prints a single error line, then the mapped stack indented
// by four spaces.
func reportFailure(err error) {
	var evalErr *hosterr.EvaluationError
	if errors.As(err, &evalErr) && evalErr.Stack != "" && evalErr.Stack != evalErr.Message {
		fmt.Fprintf(os.Stderr, "myco: %s\n", evalErr.Message)
		for _, line := range strings.Split(evalErr.Stack, "\n") {
			fmt.Fprintf(os.Stderr, "    %s\n", strings.TrimRight(line, "\r"))
		}
		return
	}
	fmt.Fprintf(os.Stderr, "myco: %v\n", err)
}
