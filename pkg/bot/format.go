package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"htem/fanc/pkg/datastore"
	"htem/fanc/pkg/policy/engine"
)

const helpText = `Hello! Before using me for the first time, you may want to read through the list of available annotations:
%s
You can send me a message that looks like one of the ` + "`example messages below`" + ` to find certain types of neurons, or get or upload information about specific neurons.

Find neurons with some annotations:
- ` + "`find DNx01`" + ` -> find all neurons currently annotated with "DNx01"
- ` + "`find chordotonal neuron and ascending`" + ` -> find all neurons annotated with both "chordotonal neuron" and "ascending"
- You can use as many search terms as you want, e.g. ` + "`find W and X and Y and Z`" + `

Get information about a specific neuron:
- ` + "`648518346486614449?`" + ` -> get annotations for segment 648518346486614449
- ` + "`648518346486614449??`" + ` or ` + "`648518346486614449? all`" + ` -> get extended annotation details for segment 648518346486614449
- ` + "`48848 114737 2690?`" + ` -> get annotations for the segment at that point

Upload annotations:
- ` + "`648518346486614449! primary class > central neuron`" + ` -> annotate that the segment's "primary class" is "central neuron"
- ` + "`648518346489818455! projection pattern > bilateral`" + ` -> annotate that segment 648518346489818455 projects bilaterally
(To upload annotations you first need permissions, so send %s a message to ask if you're interested.)`

func (p *Processor) help() string {
	var tables strings.Builder
	for _, name := range p.opts.Tables {
		fmt.Fprintf(&tables, "- `%s`", name)
		if t, err := p.opts.Engine.Table(engine.Named(name)); err == nil && t.HelpURL() != "" {
			fmt.Fprintf(&tables, ": <%s>", t.HelpURL())
		}
		tables.WriteString("\n")
	}
	return fmt.Sprintf(helpText, tables.String(), p.opts.Contact)
}

// errorBlock renders err as its type name followed by the message in a code
// block.
func errorBlock(err error) string {
	return fmt.Sprintf("`%s`\n```%s```", errorType(err), err)
}

func errorType(err error) string {
	var (
		perr   *engine.PolicyError
		status *datastore.StatusError
		target *TargetError
	)
	switch {
	case errors.As(err, &perr):
		return perr.Kind.String()
	case errors.As(err, &status):
		return "StatusError"
	case errors.As(err, &target):
		return "TargetError"
	case errors.Is(err, datastore.ErrNotFound):
		return "NotFound"
	}
	return "Error"
}

func quoteTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = strconv.Quote(t)
	}
	return strings.Join(quoted, " and ")
}

// detailTable lays rows out in aligned columns.
func detailTable(rows []datastore.Annotation) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "table\tannotation_class\tannotation\tuser_id\tcreated")
	for _, a := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.Table, a.Tag2, a.Tag, a.UserID, a.Created.Format("2006-01-02"))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
