package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forgebuild/forge/cmd/forge/cli"
	"github.com/forgebuild/forge/common/version"
)

const (
	DefaultConfigDir = "~/"
	ConfigFileName   = ".forge"
)

var defaultConfigFilePath = fmt.Sprintf("%s%s.yml", DefaultConfigDir, ConfigFileName)

type GlobalConfig struct {
	Debug          bool
	JSON           bool
	ConfigFilePath string
}

var Global = &GlobalConfig{}

var RootCmd = &cobra.Command{
	Use:           "forge",
	Short:         "forge builds a workspace of projects, artifacts and jobs",
	Version:       version.VersionToString(),
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(
		&Global.ConfigFilePath, "config", "c", defaultConfigFilePath,
		"The config file to use when executing commands.")
	RootCmd.PersistentFlags().BoolVarP(
		&Global.Debug, "debug", "d", false,
		"Debug flag; parsed, but no command reads it, so log levels are unchanged.")
	RootCmd.PersistentFlags().BoolVarP(
		&Global.JSON, "json", "j", false,
		"JSON flag; parsed, but no command reads it, so log format still follows whether stdout is a terminal.")

	RootCmd.AddCommand(buildCmd)
	RootCmd.AddCommand(serveCmd)
}

// Execute runs the root command and exits the process with the exit code
// the error taxonomy maps the resulting error's Kind to.
func Execute() {
	cli.Exit(RootCmd.Execute())
}

func initConfig() {
	if Global.ConfigFilePath != "" && Global.ConfigFilePath != defaultConfigFilePath {
		viper.SetConfigFile(Global.ConfigFilePath)
	} else {
		viper.SetConfigName(ConfigFileName)
		viper.AddConfigPath(DefaultConfigDir)
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
