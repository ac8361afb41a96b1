// Package cmd implements the searchtrail command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/searchtrail/searchtrail/internal/config"
)

// version is stamped at build time via -ldflags.
var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "searchtrail",
	Short:   "searchtrail — log browser searches into your notes",
	Version: version,
	Long: `searchtrail is a small local daemon. A browser extension POSTs each
search you make to it over loopback HTTP; searchtrail appends one markdown
line per search to a note in your vault (Obsidian, Logseq, or any folder
of markdown files). The port and write settings hot-reload from the
settings file without restarting the daemon.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"settings file (default: <user config dir>/searchtrail/settings.json)")
	rootCmd.PersistentFlags().Int("port", 8090, "listening port (1024-65535)")
	rootCmd.PersistentFlags().String("host", "127.0.0.1", "bind address")
	rootCmd.PersistentFlags().String("vault-dir", "", "notes directory")
	rootCmd.PersistentFlags().String("note", "Search Log", "vault-relative note path (.md optional)")
	rootCmd.PersistentFlags().Bool("prepend", false, "insert new lines before existing content")
	rootCmd.PersistentFlags().String("time-format", "", "moment-style timestamp format")
	rootCmd.PersistentFlags().Bool("access-log", false, "log every request")
	rootCmd.PersistentFlags().String("log-dir", "", "directory for the rotating process log")
	rootCmd.PersistentFlags().String("log-format", "text", "process log format: text, json")

	for flag, key := range map[string]string{
		"port":        "port",
		"host":        "host",
		"vault-dir":   "vault_dir",
		"note":        "note",
		"prepend":     "prepend",
		"time-format": "time_format",
		"access-log":  "access_log",
		"log-dir":     "log_dir",
		"log-format":  "log_format",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// initConfig loads settings with flag > env > file > default precedence.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir := os.Getenv("SEARCHTRAIL_CONFIG_DIR")
		if dir == "" {
			ucd, err := os.UserConfigDir()
			cobra.CheckErr(err)
			dir = filepath.Join(ucd, "searchtrail")
		}
		v.AddConfigPath(dir)
		v.SetConfigName("settings")
		v.SetConfigType("json")
	}

	v.SetEnvPrefix("SEARCHTRAIL")
	v.AutomaticEnv()

	// A missing settings file is fine: defaults plus flags and env
	// make a complete configuration.
	_ = v.ReadInConfig()
}
