package cleartool

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultExecutable is the repository CLI name.
	DefaultExecutable = "cleartool"

	// HistoryFormat is the -fmt template for lshistory records:
	//
	//	%Nd numeric date, %u user, %En element path with name, %Vn version id,
	//	%e event description, %o operation, %Nc comment without newlines.
	//
	// The record terminator is the two-character sequence `\n`, not a newline,
	// so the template survives being passed through setview -exec.
	HistoryFormat = `%Nd| |%u| |%En| |%Vn| |%e| |%o| |%Nc\n`

	// FieldSeparator splits a record produced by HistoryFormat.
	FieldSeparator = "| |"
)

const (
	cmdLshistory = "lshistory"
	cmdLsview    = "lsview"
	cmdSetview   = "setview"
	cmdDescribe  = "describe"

	paramRecurse = "-recurse"
	paramSince   = "-since"
	paramLast    = "-last"
	paramFmt     = "-fmt"
	paramNco     = "-nco"
	paramExec    = "-exec"
	paramShort   = "-short"
)

// DefaultLastNumEvents bounds a cold-start query that has no -since date.
const DefaultLastNumEvents = 10

// lshistoryArgs builds the argument vector (without the executable) for one
// load rule. A nil since yields a -last N bounded query without recursion.
func lshistoryArgs(loadRule string, since *time.Time, lastN int, loc *time.Location) []string {
	args := []string{cmdLshistory}

	if since != nil {
		args = append(args, paramRecurse, paramSince, FormatSinceDate(*since, loc))
	} else {
		if lastN <= 0 {
			lastN = DefaultLastNumEvents
		}
		args = append(args, paramLast, strconv.Itoa(lastN))
	}

	return append(args, paramFmt, HistoryFormat, paramNco, loadRule)
}

// wrapInView turns executable+args into a setview -exec invocation. The inner
// command line is passed as one quoted argument.
func wrapInView(executable, view string, args []string) ([]string, error) {
	inner := append([]string{executable}, args...)
	for _, a := range inner {
		if strings.ContainsAny(a, "\r\n") {
			return nil, &CommandError{Arg: a, Reason: "literal newline would terminate the command run by setview -exec"}
		}
	}
	return []string{cmdSetview, paramExec, QuoteCommandLine(inner), view}, nil
}

// QuoteCommandLine joins args into a single shell command line, double
// quoting every argument that is empty or contains characters the shell
// would interpret.
func QuoteCommandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quoteArg(a)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(a string) string {
	if a == "" {
		return `""`
	}
	if !strings.ContainsAny(a, " \t|&;<>()$`\\\"'*?[]#~=%!{}") {
		return a
	}
	var b strings.Builder
	b.Grow(len(a) + 2)
	b.WriteByte('"')
	for _, r := range a {
		switch r {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
