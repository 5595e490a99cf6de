package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"clipreel/internal/history"
	"clipreel/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset        = "\x1b[0m"
	statusLabelWidth = 22
	statusIndent     = "  "
)

// renderStatusLine renders "  Label:   [KIND] message", wrapped in the kind's
// colour when colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	if style.label == "" {
		style = statusStyles[statusInfo]
	}
	statusText := "[" + style.label + "]"
	if message != "" {
		statusText += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		color := statusStyles[statusInfo].color
		return []string{color + heading + ansiReset, color + rule + ansiReset}
	}
	return []string{heading, rule}
}

func preflightLine(r preflight.Result, colorize bool) string {
	switch {
	case r.Passed:
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	case r.Optional:
		return renderStatusLine(r.Name, statusWarn, r.Detail, colorize)
	default:
		return renderStatusLine(r.Name, statusError, r.Detail, colorize)
	}
}

func statusKindForRun(status history.Status) statusKind {
	switch status {
	case history.StatusSucceeded:
		return statusOK
	case history.StatusPartial, history.StatusNothingToDo, history.StatusInterrupted:
		return statusWarn
	case history.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

// shouldColorize reports whether writer is a terminal. It also gates the
// progress bars shown during a run.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
