package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

const (
	outputXML  = "xml"
	outputJSON = "json"
	outputMin  = "min"
)

// printResult writes res in the selected format. A non-success result is
// returned as an error so the process exits non-zero.
func printResult(w io.Writer, command string, res *epp.Result) error {
	switch rootFlags.output {
	case outputXML:
		if err := printXML(w, res.Raw); err != nil {
			return err
		}
	case outputJSON:
		if err := printJSON(w, res); err != nil {
			return err
		}
	default:
		fmt.Fprintf(w, "%d %s\n", int(res.Code), res.Message)
		if res.Reason != "" {
			fmt.Fprintf(w, "reason: %s\n", res.Reason)
		}
		if res.Payload != nil {
			if err := printJSON(w, res.Payload); err != nil {
				return err
			}
		}
	}
	if !res.Succeeded() {
		return &epp.CommandError{Command: command, Code: res.Code, Message: res.Message, Reason: res.Reason}
	}
	return nil
}

func printXML(w io.Writer, raw string) error {
	pretty, err := xmldoc.Indent([]byte(raw))
	if err != nil {
		// Not well-formed; show it as received.
		pretty = raw
	}
	_, err = fmt.Fprintln(w, pretty)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
