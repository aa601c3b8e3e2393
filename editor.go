package xedit

import (
	"io"
	"log/slog"

	"github.com/dannyswat/xedit/history"
)

// Editor applies edits and keeps the undo/redo log for them.
type Editor struct {
	history *history.History[Edit]
	logger  *slog.Logger
}

// Option configures an Editor.
type Option func(*editorOptions)

type editorOptions struct {
	logger     *slog.Logger
	maxHistory int
}

// WithLogger sets the logger skipped edits are reported to.
// By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *editorOptions) {
		o.logger = l
	}
}

// WithMaxHistory bounds the number of undo entries kept.
func WithMaxHistory(n int) Option {
	return func(o *editorOptions) {
		o.maxHistory = n
	}
}

// EditOption adjusts how a single edit is recorded.
type EditOption func(*editOptions)

type editOptions struct {
	title     string
	squash    bool
	noHistory bool
}

// Title labels the edit in log output.
func Title(title string) EditOption {
	return func(o *editOptions) {
		o.title = title
	}
}

// Squash merges the edit into the previous history entry, so one undo reverts
// both.
func Squash() EditOption {
	return func(o *editOptions) {
		o.squash = true
	}
}

// NoHistory applies the edit without recording it.
func NoHistory() EditOption {
	return func(o *editOptions) {
		o.noHistory = true
	}
}

// NewEditor creates an Editor with an empty history.
func NewEditor(opts ...Option) *Editor {
	o := editorOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Editor{logger: o.logger}
	e.history = history.New(e.replay, history.WithMaxEntries(o.maxHistory))
	return e
}

// HandleEdit applies edit, records it in the history and returns the edit
// that undoes it.
func (e *Editor) HandleEdit(edit Edit, opts ...EditOption) Edit {
	var o editOptions
	for _, opt := range opts {
		opt(&o)
	}

	undo := e.perform(edit, o.title)
	switch {
	case o.noHistory:
	case o.squash:
		e.history.Squash(undo, edit, concat)
	default:
		e.history.NewEntry(undo, edit)
	}
	e.logger.Debug("edit applied",
		"title", o.title,
		"kind", Classify(edit),
		"editCount", e.history.EditCount(),
		"version", e.history.Version())
	return undo
}

// replay performs a recorded edit. Its undo edit is already in the history.
func (e *Editor) replay(edit Edit) {
	e.perform(edit, "")
}

func (e *Editor) perform(edit Edit, title string) Edit {
	undo, outcomes := ApplyTraced(edit)
	for _, o := range outcomes {
		if o.Skipped() {
			e.logger.Debug("edit skipped",
				"title", title,
				"kind", Classify(o.Edit),
				"err", o.Err)
		}
	}
	return undo
}

// concat returns a batch performing first, then second.
func concat(first, second Edit) Edit {
	return Complex{first, second}
}

// Undo reverts up to n edits.
func (e *Editor) Undo(n int) {
	e.history.Undo(n)
}

// Redo reapplies up to n undone edits.
func (e *Editor) Redo(n int) {
	e.history.Redo(n)
}

// CanUndo reports whether there is an edit to undo.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether there is an undone edit to redo.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// EditCount is the number of edits currently applied.
func (e *Editor) EditCount() int {
	return e.history.EditCount()
}

// Version is a revision stamp that changes whenever the history moves.
func (e *Editor) Version() int {
	return e.history.Version()
}
