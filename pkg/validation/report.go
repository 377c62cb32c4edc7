package validation

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/nodewee/image-to-jp2/pkg/types"
	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// Validity field names, in order of precedence. Older jpylyzer releases
// report isValidJP2, newer ones isValid.
var validityFields = []string{"isValidJP2", "isValid"}

// ParseReport extracts the validity flag from a jpylyzer XML report. The
// first validity field present decides; a report with neither is invalid.
func ParseReport(raw []byte) (*types.ValidationVerdict, error) {
	found := make(map[string]string, len(validityFields))
	sawRoot := false

	d := newDecoder(raw)
	var current string
	var text strings.Builder
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, utils.NewValidatorError("malformed jpylyzer report", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			if current == "" && isValidityField(t.Name.Local) {
				if _, seen := found[t.Name.Local]; !seen {
					current = t.Name.Local
					text.Reset()
				}
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && t.Name.Local == current {
				found[current] = strings.TrimSpace(text.String())
				current = ""
			}
		}
	}

	if !sawRoot {
		return nil, utils.NewValidatorError("empty jpylyzer report", nil)
	}

	verdict := &types.ValidationVerdict{Raw: raw}
	for _, field := range validityFields {
		if value, ok := found[field]; ok {
			verdict.Valid = value == "True"
			break
		}
	}
	return verdict, nil
}

// PrettyReport re-indents a jpylyzer report as UTF-8
func PrettyReport(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	d := newDecoder(raw)
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			tok = xml.CharData(bytes.TrimSpace(t))
		case xml.StartElement:
			tok = flattenStart(t)
		case xml.EndElement:
			tok = xml.EndElement{Name: flattenName(t.Name)}
		}
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func newDecoder(raw []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(raw))
	d.CharsetReader = charset.NewReaderLabel
	return d
}

func isValidityField(name string) bool {
	for _, f := range validityFields {
		if f == name {
			return true
		}
	}
	return false
}

// Raw tokens keep their prefixes in Name.Space; fold them back into the
// local name so the encoder writes them verbatim.
func flattenName(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}

func flattenStart(s xml.StartElement) xml.StartElement {
	out := xml.StartElement{Name: flattenName(s.Name), Attr: make([]xml.Attr, 0, len(s.Attr))}
	for _, a := range s.Attr {
		out.Attr = append(out.Attr, xml.Attr{Name: flattenName(a.Name), Value: a.Value})
	}
	return out
}
