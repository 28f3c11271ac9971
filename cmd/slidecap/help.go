package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidecap <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Serve POST /api/<category>/screenshot-full")
	fmt.Fprintln(w, "  capture    Capture one content item and write slide files")
	fmt.Fprintln(w, "  doctor     Check Chrome and environment")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'slidecap help <command>' for details on a specific command.")
}

// printCommonUsage prints flags shared by serve and capture.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env <s>             Browser environment: local, serverless")
	fmt.Fprintln(w, "      --base-url <url>      App rendering the slide pages")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SLIDECAP_CONFIG, SLIDECAP_ADDR, SLIDECAP_BASE_URL (or NEXT_PUBLIC_APP_URL),")
	fmt.Fprintln(w, "  SLIDECAP_ENV, SLIDECAP_TIMEOUT, SLIDECAP_SETTLE_DELAY, SLIDECAP_WORKERS,")
	fmt.Fprintln(w, "  SLIDECAP_LOG_LEVEL, SLIDECAP_LOG_FORMAT, ROD_BROWSER_BIN, ROD_NO_SANDBOX")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidecap serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve slide captures over HTTP until interrupted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent captures (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Capture timeout (e.g., 90s)")
	fmt.Fprintln(w, "      --print-config        Print the resolved config and exit")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidecap capture --category <name> --id <id> --slides <n> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture one content item and write slide-01.jpg, slide-02.jpg, ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture:")
	fmt.Fprintln(w, "      --category <name>     Content category (riddles, tutorials, sites)")
	fmt.Fprintln(w, "      --id <id>             Content id")
	fmt.Fprintln(w, "  -n, --slides <n>          Number of slides (max server.maxSlides)")
	fmt.Fprintln(w, "  -k, --kind <s>            carousel (1080x1350) or video (1080x1920)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default .)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Capture timeout (e.g., 90s)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slidecap doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, sandbox and environment before serving.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output results as JSON")
}

// runHelp prints help for a command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "capture":
		printCaptureUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "slidecap: %v %q\n", ErrUnknownCommand, args[0])
		return ExitUsage
	}
	return ExitSuccess
}
