package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdconfig "github.com/konvertorxml/konvertorxml/internal/cmd/config"
	"github.com/konvertorxml/konvertorxml/internal/config"
	"github.com/konvertorxml/konvertorxml/internal/errors"
)

// Exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitCanceled = 130
)

var rootCmd = &cobra.Command{
	Use:   "konvertorxml",
	Short: "Convert ledger CSV exports into posting XML",
	Long: `konvertorxml cleans payroll ledger CSV exports and converts them into
<uctovne_doklady> posting documents for import into the accounting system.

The export's preamble, summary rows and footer are removed, then every ledger
row becomes a debit and a credit posting item.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errors.ErrCanceled):
		return ExitCanceled
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrMissingAttributes):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Hint returns advice to print after err, or "" when the message speaks
// for itself.
func Hint(err error) string {
	if err == nil || errors.IsUserFacing(err) {
		return ""
	}
	return "See 'konvertorxml logs --level error' for details."
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/konvertorxml/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	cmdconfig.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KONVERTORXML")
	// e.g. KONVERTORXML_DOCUMENT_MANDANT_ID for document.mandant_id
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
