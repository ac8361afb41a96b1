package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/searchtrail/searchtrail/internal/config"
	"github.com/searchtrail/searchtrail/internal/server"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the current settings",
	Long: `Check the settings the daemon would start with: port range, vault
directory, and the note path against the live vault. Exits non-zero when
anything is wrong, without binding a port or writing anything.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	settings, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	if settingsFile := viper.ConfigFileUsed(); settingsFile != "" {
		fmt.Fprintf(os.Stdout, "settings file: %s\n", settingsFile)
	} else {
		fmt.Fprintln(os.Stdout, "settings file: none (defaults, flags, and env only)")
	}

	store, err := server.Validate(settings)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "listen address: %s\n", settings.ListenAddr())
	fmt.Fprintf(os.Stdout, "vault: %s\n", store.Root())
	fmt.Fprintf(os.Stdout, "note: %s (%s mode)\n", settings.NotePath(), modeName(settings.Prepend))
	fmt.Fprintln(os.Stdout, "ok")
	return nil
}
