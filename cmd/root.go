package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docmorph/docmorph/cmd/audit"
	"github.com/docmorph/docmorph/cmd/transform"
	"github.com/docmorph/docmorph/cmd/version"
	"github.com/docmorph/docmorph/pkg/shared/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "docmorph [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Docmorph applies gated transform modules to HTML documents.",
		Long: `Docmorph applies an ordered sequence of operator-supplied transform modules
	to an HTML document. Every module is statically analysed for dangerous
	capability use before it is loaded, and every path the tool touches is
	confined to an allowed root. The gate is advisory, not a sandbox.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is docmorph.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(transform.TransformCmd)
	rootCmd.AddCommand(audit.AuditCmd)
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	explicit := cfgFile != ""
	if cfgFile == "" {
		cfgFile = "docmorph.yml"
	}

	if _, statErr := os.Stat(cfgFile); os.IsNotExist(statErr) && !explicit {
		// No config file is fine; everything has a default.
		AppConfig = &config.Config{}
	} else {
		AppConfig, err = config.NewConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize config file %q: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}

	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	transform.Init(AppConfig)
	audit.Init(AppConfig)
}
