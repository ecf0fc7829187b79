package udxml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/konvertorxml/konvertorxml/internal/errors"
)

const (
	declaration = `<?xml version="1.0"?>`
	indent      = "  "
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	default:
		return r >= 0x10000 && r <= 0x10FFFF
	}
}

func checkAttrs(element string, attrs []Attr) error {
	for _, a := range attrs {
		for _, r := range a.Value {
			if !isXMLChar(r) {
				return errors.NewValidationError(fmt.Sprintf("%s contains U+%04X, which XML cannot represent", element, r)).
					WithField(a.Name).
					WithValue(a.Value)
			}
		}
	}
	return nil
}

// CheckChars fails on the first attribute value holding a control
// character or other code point that XML 1.0 forbids even when escaped.
func (d Document) CheckChars() error {
	if err := checkAttrs("uctovny_doklad", d.Header.Attrs()); err != nil {
		return err
	}
	for i, it := range d.Items {
		if err := checkAttrs(fmt.Sprintf("polozka_ud %d", i+1), it.Attrs()); err != nil {
			return err
		}
	}
	return nil
}

// Render serializes doc as indented XML. Attribute values are trimmed and
// blank ones are left out unless keepEmpty is set. Elements without
// children are self-closing.
func Render(doc Document, keepEmpty bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(declaration)
	buf.WriteByte('\n')
	buf.WriteString("<uctovne_doklady>\n")

	buf.WriteString(indent)
	openTag(&buf, "uctovny_doklad", doc.Header.Attrs(), keepEmpty)
	if len(doc.Items) == 0 {
		buf.WriteString("/>\n")
	} else {
		buf.WriteString(">\n")
		for _, it := range doc.Items {
			buf.WriteString(indent + indent)
			openTag(&buf, "polozka_ud", it.Attrs(), keepEmpty)
			buf.WriteString("/>\n")
		}
		buf.WriteString(indent + "</uctovny_doklad>\n")
	}

	buf.WriteString("</uctovne_doklady>\n")
	return buf.Bytes()
}

// openTag writes "<name attr=...", leaving the tag open.
func openTag(buf *bytes.Buffer, name string, attrs []Attr, keepEmpty bool) {
	buf.WriteByte('<')
	buf.WriteString(name)
	for _, a := range attrs {
		v := strings.TrimSpace(a.Value)
		if v == "" && !keepEmpty {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		_, _ = attrEscaper.WriteString(buf, v)
		buf.WriteByte('"')
	}
}
