package bot

import (
	"fmt"
	"strconv"
	"strings"

	"htem/fanc/pkg/datastore"
)

// CommandKind identifies what a message asks for.
type CommandKind int

const (
	// CommandUnknown is a message with no recognizable request.
	CommandUnknown CommandKind = iota
	// CommandHelp asks for usage text.
	CommandHelp
	// CommandFind searches for segments carrying every term.
	CommandFind
	// CommandQuery lists the annotations on one segment.
	CommandQuery
	// CommandAnnotate posts an annotation to one segment.
	CommandAnnotate
)

func (k CommandKind) String() string {
	switch k {
	case CommandHelp:
		return "help"
	case CommandFind:
		return "find"
	case CommandQuery:
		return "query"
	case CommandAnnotate:
		return "annotate"
	}
	return "unknown"
}

// Target is the neuron a command refers to, given either as a segment ID or
// as a point inside it.
type Target struct {
	Segment uint64
	Point   *datastore.Point
}

// String renders the target as the user typed it.
func (t Target) String() string {
	if t.Point != nil {
		return formatPoint(*t.Point)
	}
	return strconv.FormatUint(t.Segment, 10)
}

// Command is a parsed chat message.
type Command struct {
	Kind CommandKind

	// Terms are the search terms of a find command.
	Terms []string

	Target Target

	// Details requests extended annotation details.
	Details bool

	// Annotation is the text to post.
	Annotation string
}

// TargetError reports a segment reference that is neither an ID nor a point.
type TargetError struct {
	Input string
}

// Error implements the error interface.
func (e *TargetError) Error() string {
	return fmt.Sprintf("Could not parse `%s` as a segment ID or a point.", e.Input)
}

var detailModifiers = []string{"all", "details", "verbose", "everything"}

// ParseCommand parses a chat message. The error is a *TargetError when the
// message is a query or upload whose segment reference cannot be read.
func ParseCommand(text string) (Command, error) {
	if strings.Contains(strings.ToLower(text), "help") {
		return Command{Kind: CommandHelp}, nil
	}

	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}

	if strings.HasPrefix(text, "get ") || strings.HasPrefix(text, "find ") {
		rest := text[strings.Index(text, " ")+1:]
		var terms []string
		for _, term := range strings.Split(rest, " and ") {
			terms = append(terms, strings.Trim(term, `"'`))
		}
		return Command{Kind: CommandFind, Terms: terms}, nil
	}

	// Chat clients deliver '>' HTML-escaped.
	text = strings.ReplaceAll(text, "&gt;", ">")

	details := false
	if strings.Contains(text, "??") {
		details = true
		text = strings.ReplaceAll(text, "??", "?")
	}

	if i := strings.Index(text, "?"); i >= 0 {
		target, err := ParseTarget(text[:i])
		if err != nil {
			return Command{Kind: CommandQuery}, err
		}
		modifiers := strings.ToLower(strings.Trim(text[i+1:], " "))
		for _, m := range detailModifiers {
			if strings.Contains(modifiers, m) {
				details = true
			}
		}
		return Command{Kind: CommandQuery, Target: target, Details: details}, nil
	}

	if i := strings.Index(text, "!"); i >= 0 {
		target, err := ParseTarget(text[:i])
		if err != nil {
			return Command{Kind: CommandAnnotate}, err
		}
		return Command{
			Kind:       CommandAnnotate,
			Target:     target,
			Annotation: strings.Trim(text[i+1:], " "),
		}, nil
	}

	return Command{Kind: CommandUnknown}, nil
}

// ParseTarget reads a segment ID, or a point written as "x y z" with
// optional commas.
func ParseTarget(s string) (Target, error) {
	trimmed := strings.TrimSpace(s)
	if seg, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return Target{Segment: seg}, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) != 3 {
		return Target{}, &TargetError{Input: s}
	}
	var p datastore.Point
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.Trim(f, ","), 10, 64)
		if err != nil {
			return Target{}, &TargetError{Input: s}
		}
		p[i] = v
	}
	return Target{Point: &p}, nil
}

func formatPoint(p datastore.Point) string {
	return fmt.Sprintf("[%d, %d, %d]", p[0], p[1], p[2])
}
