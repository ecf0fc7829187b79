package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/tui/form"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

var attrUsage = map[string]string{
	udxml.AttrCisloUD:   "document number",
	udxml.AttrDatumUD:   "document date, e.g. 30.09.2025",
	udxml.AttrMandantID: "mandant id",
	udxml.AttrDruhUD:    "document kind",
	udxml.AttrTypUD:     "document type",
	udxml.AttrTextUD:    "document text",
}

// runForm asks for the document attributes. Tests replace it.
var runForm = func(defaults udxml.Header, source string) (udxml.Header, error) {
	return form.Run(defaults, source)
}

// headerFlags holds the --cislo_ud ... --text_ud flags of one command.
type headerFlags struct {
	values        map[string]*string
	interactive   bool
	noInteractive bool
}

// addHeaderFlags registers the attribute flags on cmd. Interactive commands
// also get --no-interactive.
func addHeaderFlags(cmd *cobra.Command, interactive bool) *headerFlags {
	hf := &headerFlags{
		values:      make(map[string]*string, len(udxml.HeaderAttrs)),
		interactive: interactive,
	}
	for _, name := range udxml.HeaderAttrs {
		hf.values[name] = cmd.Flags().String(name, "", attrUsage[name]+" (default from document."+name+")")
	}
	if interactive {
		cmd.Flags().BoolVar(&hf.noInteractive, "no-interactive", false, "never open the attribute form; every attribute must be set")
	}
	return hf
}

// header returns the flag values with blanks taken from defaults.
func (hf *headerFlags) header(defaults udxml.Header) udxml.Header {
	var h udxml.Header
	for name, v := range hf.values {
		h.Set(name, strings.TrimSpace(*v))
	}
	return h.Merge(defaults)
}

// resolve returns the attributes for source. On a terminal the form opens
// prefilled with the flags and configured defaults, and blank values are
// accepted there. Otherwise every attribute must be set.
func (hf *headerFlags) resolve(defaults udxml.Header, source string) (udxml.Header, error) {
	h := hf.header(defaults)
	if hf.interactive && !hf.noInteractive && isTerminal() {
		return runForm(h, source)
	}
	return h, h.Validate()
}
