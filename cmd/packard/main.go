package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	packard "github.com/daios-ai/packard"
)

const (
	appName     = "packard"
	historyFile = ".packard_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("Packard Script %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", packard.Version)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(packard.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Packard Script %s (built %s)

Usage:
  %s run [file.psl] [--trace <path>] [--debug]   Run a script (default: packard.yml entry).
  %s repl                                        Start the REPL.
  %s version                                     Print the compiled version.

Flags for run:
  --trace <path>   Evaluation trace destination (default %s or the manifest's trace).
  --debug          Print the token list and parse tree, and write parse_trace.log.

`, packard.Version, packard.BuildDate, appName, appName, appName, packard.DefaultTracePath)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	tracePath := fs.String("trace", "", "evaluation trace destination")
	debug := fs.Bool("debug", false, "print tokens and parse tree")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	file := ""
	if rest := fs.Args(); len(rest) > 0 {
		file = rest[0]
	} else {
		man, err := packard.LoadManifest(".")
		if err != nil {
			if errors.Is(err, packard.ErrNoManifest) {
				fmt.Fprintf(os.Stderr, "usage: %s run <file.psl> (or add a %s)\n", appName, packard.ManifestName)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			}
			return 2
		}
		file = man.EntryPath()
		if *tracePath == "" {
			*tracePath = man.TracePath()
		}
		if man.Debug {
			*debug = true
		}
	}
	if *tracePath == "" {
		*tracePath = packard.DefaultTracePath
	}

	srcBytes, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	src := string(srcBytes)

	toks, err := packard.NewLexer(src).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, packard.WrapErrorWithName(err, file, src).Error())
		return 1
	}
	if *debug {
		fmt.Printf("Tokens (%d total):\n", len(toks))
		for i, tok := range toks {
			fmt.Printf("  %d: %s\n", i, tok)
		}
	}

	root, err := packard.ParseTags(toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, packard.WrapErrorWithName(err, file, src).Error())
		return 1
	}
	if *debug {
		fmt.Printf("\nParsed root tag:\n  %s\n", packard.FormatTagTree(root))
		writeParseTrace(root)
	}

	var tracer packard.Tracer = packard.NopTracer{}
	var ft *packard.FileTracer
	if ft, err = packard.NewFileTracer(*tracePath); err != nil {
		// The trace channel is best-effort: report and run without it.
		fmt.Fprintf(os.Stderr, "%s: cannot create trace file %s: %v (continuing without trace)\n", appName, *tracePath, err)
		ft = nil
	} else {
		tracer = ft
		defer ft.Close()
	}

	ev := packard.NewEvaluatorWithTracer(tracer)
	result, err := ev.EvalProgram(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	if ft != nil {
		if werr := ft.Err(); werr != nil {
			fmt.Fprintf(os.Stderr, "%s: trace writes to %s failed: %v\n", appName, *tracePath, werr)
		} else {
			fmt.Printf("Evaluation trace written to %s\n", *tracePath)
		}
	}
	fmt.Printf("Result: %s\n", packard.FormatValue(result))
	fmt.Println("Character store:")
	for _, name := range sortedNames(ev.Store()) {
		fmt.Printf("  %s: %s\n", name, packard.FormatValue(ev.Store()[name]))
	}
	return 0
}

func writeParseTrace(root *packard.TagNode) {
	f, err := os.Create("parse_trace.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot create parse_trace.log: %v\n", appName, err)
		return
	}
	defer f.Close()
	if err := packard.WriteTagTrace(f, root); err != nil {
		fmt.Fprintf(os.Stderr, "%s: writing parse_trace.log: %v\n", appName, err)
	}
}

func sortedNames(store map[string]packard.Value) []string {
	names := make([]string, 0, len(store))
	for name := range store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	// One evaluator for the whole session: the character store and the
	// root frame's attributes persist across inputs.
	ev := packard.NewEvaluator()

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			switch strings.TrimSpace(strings.ToLower(code)) {
			case ":quit":
				return 0
			case ":store":
				for _, name := range sortedNames(ev.Store()) {
					fmt.Printf("  %s: %s\n", name, packard.FormatValue(ev.Store()[name]))
				}
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		root, err := packard.ParseSource(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(packard.WrapErrorWithSource(err, code).Error()))
			continue
		}
		v, err := ev.EvalProgram(root)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(blue(packard.FormatValue(v)))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe keeps prompting for continuation lines while the
// accumulated input still fails with "unexpected end of input".
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := packard.ParseSource(src); isIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func isIncomplete(err error) bool {
	var pe *packard.ParseError
	return errors.As(err, &pe) && pe.Msg == "unexpected end of input"
}
