// Command xedit applies edit scripts to an HTML or XML document and prints
// the result.
//
// A script is a stream of JSON edit records; each top-level value becomes one
// history entry:
//
//	xedit -doc page.html -script edits.json -undo 1
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	stlog "log"
	"log/slog"
	"os"

	"github.com/sanity-io/litter"
	"golang.org/x/net/html"

	"github.com/dannyswat/xedit"
	"github.com/dannyswat/xedit/internal/config"
)

var (
	configPath string
	docPath    string
	scriptPath string
	wantPath   string
	undoSteps  int
	redoSteps  int
	dump       bool
)

func main() {
	flag.StringVar(&configPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&docPath, "doc", "-", "Document to edit ('-' for stdin)")
	flag.StringVar(&scriptPath, "script", "", "JSON edit script to apply")
	flag.StringVar(&wantPath, "diff", "", "Document to turn the input into, applied as one edit")
	flag.IntVar(&undoSteps, "undo", 0, "Number of edits to undo afterwards")
	flag.IntVar(&redoSteps, "redo", 0, "Number of edits to redo after undoing")
	flag.BoolVar(&dump, "dump", false, "Dump the undo record of every applied edit to stderr")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		stlog.Fatalf("Failed to load config: %v", err)
	}
	w, closeLog, err := cfg.Logger.Open()
	if err != nil {
		stlog.Fatalf("Failed to open log: %v", err)
	}
	defer closeLog()
	logger := cfg.Logger.NewLogger(w)
	for _, key := range cfg.Unknown {
		logger.Warn("unrecognized config key", "key", key)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("xedit failed", "err", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	doc, err := readDocument(docPath)
	if err != nil {
		return err
	}

	editor := xedit.NewEditor(
		xedit.WithLogger(logger),
		xedit.WithMaxHistory(cfg.History.MaxEntries),
	)

	if scriptPath != "" {
		if err := applyScript(editor, doc, scriptPath); err != nil {
			return err
		}
	}
	if wantPath != "" {
		want, err := readDocument(wantPath)
		if err != nil {
			return err
		}
		record(doc, editor.HandleEdit(xedit.Diff(doc, want), xedit.Title("diff "+wantPath)))
	}

	editor.Undo(undoSteps)
	editor.Redo(redoSteps)
	logger.Info("edits done", "editCount", editor.EditCount(), "version", editor.Version())

	out, err := xedit.RenderNode(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}

func applyScript(editor *xedit.Editor, doc *html.Node, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	for i := 0; ; i++ {
		var rec xedit.Record
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("script %s, record %d: %w", path, i, err)
		}
		edit, err := xedit.Decode(doc, rec)
		if err != nil {
			return fmt.Errorf("script %s, record %d: %w", path, i, err)
		}
		record(doc, editor.HandleEdit(edit, xedit.Title(fmt.Sprintf("%s#%d", path, i))))
	}
}

// record dumps an undo edit when -dump is set.
func record(doc *html.Node, undo xedit.Edit) {
	if !dump {
		return
	}
	rec, err := xedit.Encode(doc, undo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot encode undo edit: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, litter.Sdump(rec))
}

func readDocument(path string) (*html.Node, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return xedit.ParseHTML(string(data))
}
