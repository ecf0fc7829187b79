// Command konvertorxml cleans ledger CSV exports and converts them into
// <uctovne_doklady> posting XML.
package main

import (
	"fmt"
	"os"

	"github.com/konvertorxml/konvertorxml/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := cmd.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
