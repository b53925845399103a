package main

import (
	"fmt"
	"io"
	"strings"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
	"github.com/aledsdavies/argmerge/core/types"
)

// CLIError represents a user-facing error with optional details and hint
type CLIError struct {
	Type    string // "manifest", "arguments", "config", "merge", "schema"
	Message string // Main error message
	Details string // Optional details, shown indented below the message
	Hint    string // Optional suggestion for fixing
}

func (e *CLIError) Error() string {
	var parts []string
	parts = append(parts, e.Message)
	if e.Details != "" {
		parts = append(parts, e.Details)
	}
	if e.Hint != "" {
		parts = append(parts, "Hint: "+e.Hint)
	}
	return strings.Join(parts, "\n")
}

// hints maps each failure kind to the next step a user should take.
var hints = map[argerrors.Kind]struct {
	typ  string
	hint string
}{
	argerrors.SchemaConflict:  {"manifest", "Give every parameter its own name and aliases in the manifest."},
	argerrors.InvalidSchema:   {"manifest", "Run 'argmerge schema --meta' to see the accepted manifest layout."},
	argerrors.CliParse:        {"arguments", "Run 'argmerge params' to list accepted parameters."},
	argerrors.NoSchemaMatched: {"schema", "Run 'argmerge check --explain' to see why each shape was rejected."},
	argerrors.MergeConflict:   {"merge", "Remove the duplicated keys from either the command line or the config."},
	argerrors.ConfigLoad:      {"config", "Check that the config file exists and is well formed."},
}

// toCLIError converts any error into a CLIError.
func toCLIError(err error) *CLIError {
	if cliErr, ok := err.(*CLIError); ok {
		return cliErr
	}

	kind := argerrors.KindOf(err)
	h, ok := hints[kind]
	if !ok {
		return &CLIError{Message: err.Error()}
	}

	msg := err.Error()
	var details string
	if head, rest, found := strings.Cut(msg, "\n"); found {
		msg, details = head, rest
	}
	return &CLIError{Type: h.typ, Message: msg, Details: details, Hint: h.hint}
}

// FormatError writes a formatted error to the writer
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	e := toCLIError(err)

	fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), e.Message)
	if e.Details != "" {
		for _, line := range strings.Split(e.Details, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if e.Hint != "" {
		fmt.Fprintf(w, "\n%s%s\n", Colorize("Hint: ", ColorYellow, useColor), e.Hint)
	}
}

// FormatAttempts writes why each alternative rejected the record of a
// NoSchemaMatched error. It writes nothing for other errors.
func FormatAttempts(w io.Writer, err error, useColor bool) {
	for i, attempt := range types.Attempts(err) {
		fmt.Fprintf(w, "%s\n", Colorize(fmt.Sprintf("alternative %d:", i), ColorCyan, useColor))
		for _, msg := range attempt.Errors() {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}

// exitCode is 2 for errors in the manifest or its wiring and 1 for
// everything a user can fix on the command line or in the config.
func exitCode(err error) int {
	switch argerrors.KindOf(err) {
	case argerrors.SchemaConflict, argerrors.InvalidSchema:
		return 2
	default:
		return 1
	}
}
