package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loaneye/internal/cli/commands"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "loaneye",
	Short: "LoanEye CLI - early-warning alerts for loan portfolios",
	Long: `LoanEye CLI is a command-line client for the LoanEye server.
It browses EWS alerts and their detail tables, composes and publishes
alert rules, and shows the portfolio risk dashboard.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.loaneye.yaml)")
	rootCmd.PersistentFlags().String("url", "", "API base URL")
	_ = viper.BindPFlag(commands.KeyAPIURL, rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewAlertCommand())
	rootCmd.AddCommand(commands.NewSignalCommand())
	rootCmd.AddCommand(commands.NewSessionCommand())
	rootCmd.AddCommand(commands.NewRuleCommand())
	rootCmd.AddCommand(commands.NewDashboardCommand())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.SetConfigFile(filepath.Join(home, ".loaneye.yaml"))
	}

	viper.SetEnvPrefix("LOANEYE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing file is fine until the first login writes it.
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
