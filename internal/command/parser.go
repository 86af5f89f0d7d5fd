package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Verb is a journal lifecycle command verb.
type Verb string

const (
	VerbTP1    Verb = "tp1"
	VerbTP2    Verb = "tp2"
	VerbSL     Verb = "sl"
	VerbExit   Verb = "exit"
	VerbCancel Verb = "cancel"
	VerbStatus Verb = "status"
	VerbFill   Verb = "fill"
)

// Command is a validated lifecycle mutation parsed from chat text.
// Value is only meaningful when the verb takes a numeric argument.
type Command struct {
	Verb    Verb
	TradeID string
	Value   float64
	HasVal  bool
}

// ErrNotCommand marks free-form text that does not look like a lifecycle
// command at all. The caller hands such text to signal extraction instead.
var ErrNotCommand = errors.New("not a journal command")

// ParseError reports a malformed command with the offending token.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse command: %s (%q)", e.Reason, e.Token)
}

var needsValue = map[Verb]bool{
	VerbTP1:  true,
	VerbTP2:  true,
	VerbExit: true,
	VerbFill: true,
}

var verbs = map[string]Verb{
	"tp1":    VerbTP1,
	"tp2":    VerbTP2,
	"sl":     VerbSL,
	"exit":   VerbExit,
	"cancel": VerbCancel,
	"status": VerbStatus,
	"fill":   VerbFill,
}

// Parse interprets "<verb> <trade_id> [<number>]". The parser never
// mutates state; it only produces a validated Command for the journal.
func Parse(raw string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return Command{}, ErrNotCommand
	}

	verb, ok := verbs[strings.ToLower(strings.TrimPrefix(fields[0], "/"))]
	if !ok {
		return Command{}, ErrNotCommand
	}

	if len(fields) < 2 {
		return Command{}, &ParseError{Token: fields[0], Reason: "missing trade id"}
	}
	cmd := Command{Verb: verb, TradeID: fields[1]}

	if needsValue[verb] {
		if len(fields) < 3 {
			return Command{}, &ParseError{Token: string(verb), Reason: "missing numeric argument"}
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Command{}, &ParseError{Token: fields[2], Reason: "invalid number"}
		}
		cmd.Value = v
		cmd.HasVal = true
	} else if len(fields) > 2 {
		return Command{}, &ParseError{Token: fields[2], Reason: "unexpected argument"}
	}

	return cmd, nil
}
