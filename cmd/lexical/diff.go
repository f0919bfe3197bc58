package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// colorEnabled resolves the --color mode; auto colors only terminals.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// lineDiff compares before and after line by line.
func lineDiff(before, after string) []diffpatch.Diff {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// printDiff writes a line diff with "+", "-" and " " prefixes.
func printDiff(w io.Writer, before, after string, colored bool) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	if colored {
		added.EnableColor()
		removed.EnableColor()
	} else {
		added.DisableColor()
		removed.DisableColor()
	}

	for _, d := range lineDiff(before, after) {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffInsert:
				added.Fprintln(w, "+"+line)
			case diffpatch.DiffDelete:
				removed.Fprintln(w, "-"+line)
			default:
				fmt.Fprintln(w, " "+line)
			}
		}
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
