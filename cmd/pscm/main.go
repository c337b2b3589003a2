// pscm CLI - reads scheme expressions and echoes them in reader-reversible
// form. The evaluator is hosted externally; this entry point exercises the
// reader, the printer and the interpreter state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/pscheme/config"
	"github.com/chazu/pscheme/reader"
	"github.com/chazu/pscheme/vm"
)

var log = commonlog.GetLogger("pscm")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	interactive := flag.Bool("i", false, "Start interactive read-print loop")
	expr := flag.String("e", "", "Read one expression from the argument text")
	configDir := flag.String("c", ".", "Directory holding pscheme.toml")
	saveImage := flag.String("save-image", "", "Write an environment snapshot to the given path")
	loadImage := flag.String("load-image", "", "Restore an environment snapshot from the given path")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pscm [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Reads scheme expressions from the given files and reports parse errors;\nwith -v each expression is written back.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pscm -i                  # interactive read-print loop\n")
		fmt.Fprintf(os.Stderr, "  pscm -e \"(+ 1 2)\"        # echo one expression\n")
		fmt.Fprintf(os.Stderr, "  pscm prelude.scm         # check a file parses\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	scm := vm.NewScheme(nil)
	scm.SetGCThreshold(cfg.GC.Threshold)
	scm.GC().Logging(cfg.GC.Log)
	p := reader.NewParser(scm)

	if *loadImage != "" {
		data, err := os.ReadFile(*loadImage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
			os.Exit(1)
		}
		id, err := scm.ReadImage(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring image: %v\n", err)
			os.Exit(1)
		}
		log.Infof("restored image %s", id)
	}

	if *expr != "" {
		cell, err := p.ReadString(*expr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(vm.WriteCell(cell))
		return
	}

	files := append(cfg.Preload, flag.Args()...)
	for _, path := range files {
		if err := readFile(scm, p, path, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error in %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if *saveImage != "" {
		data, err := scm.WriteImage(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*saveImage, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
			os.Exit(1)
		}
		log.Infof("saved image to %s (%d bytes)", *saveImage, len(data))
	}

	if *interactive || len(files) == 0 {
		repl(scm, p, cfg)
	}
}

// readFile reads every datum in a file, reporting the first parse error.
func readFile(scm *vm.Scheme, p *reader.Parser, path string, verbose bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	in := vm.NewInputString(string(data))
	for {
		cell, err := p.Read(in)
		if err != nil {
			return err
		}
		if cell.IsChar() && cell.Char() == vm.EOFRune {
			return nil
		}
		if verbose {
			fmt.Println(vm.WriteCell(cell))
		}
		// safe point between top-level reads
		scm.MaybeCollect()
	}
}

// repl runs the interactive read-print loop over stdin.
func repl(scm *vm.Scheme, p *reader.Parser, cfg *config.Config) {
	hist, err := OpenHistory(cfg.REPL.History)
	if err != nil {
		log.Warningf("history disabled: %v", err)
		hist = nil
	}
	if hist != nil {
		defer hist.Close()
	}

	in := scm.InPort()
	out := scm.OutPort()
	for {
		if err := out.WriteString(cfg.REPL.Prompt); err != nil {
			return
		}
		out.Flush()

		cell, err := p.Read(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if cell.IsChar() && cell.Char() == vm.EOFRune {
			out.WriteString("\n")
			out.Flush()
			return
		}

		text := vm.WriteCell(cell)
		out.WriteString(text)
		out.WriteString("\n")
		out.Flush()

		if hist != nil {
			if err := hist.Append(text); err != nil {
				log.Warningf("history: %v", err)
			}
		}

		// safe point between top-level reads
		scm.MaybeCollect()
	}
}
