package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// printer writes either an aligned table or the raw value as JSON.
type printer struct {
	out  io.Writer
	json bool
}

func (e *env) printer() printer {
	return printer{out: e.opts.out, json: e.flags.jsonOutput}
}

// value prints v as JSON in JSON mode, otherwise calls text.
func (p printer) value(v any, text func(w io.Writer)) error {
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.out)
	return nil
}

// table prints rows under header. v is what JSON mode prints instead.
func (p printer) table(v any, header []any, rows [][]any) error {
	return p.value(v, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		printRow(tw, header)
		for _, row := range rows {
			printRow(tw, row)
		}
		tw.Flush()
	})
}

func printRow(w io.Writer, cells []any) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
