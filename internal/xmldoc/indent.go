package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Indent re-encodes data with two-space indentation. Prefixes and
// namespace declarations are kept as written; whitespace-only text is
// dropped.
func Indent(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			t.Name = flatten(t.Name)
			for i := range t.Attr {
				t.Attr[i].Name = flatten(t.Attr[i].Name)
			}
			tok = t
		case xml.EndElement:
			t.Name = flatten(t.Name)
			tok = t
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
		case xml.ProcInst:
			if t.Target == "xml" {
				buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
				buf.WriteByte('\n')
				continue
			}
		case xml.Comment, xml.Directive:
			continue
		}
		if err := enc.EncodeToken(tok); err != nil {
			return "", err
		}
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// flatten folds a raw prefix into the local name so the encoder writes it
// back verbatim.
func flatten(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
