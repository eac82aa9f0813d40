// Package main provides the entry point for the creature console.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/creatures/console/internal/config"
)

const appName = "creature-console"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	// cfg is filled by validateOptions before any command runs.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Watch, drive and animate creatures from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nThe %s streams server logs, resamples lip sync cues into animation tracks and mirrors joystick input.", keyword("creature console")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

// overlay maps config file keys onto Config fields. Keys that are unset in
// the file and flags keep the environment value.
func overlay(c *config.Config) {
	if viper.IsSet("server.host") {
		c.ServerHost = viper.GetString("server.host")
	}
	if viper.IsSet("server.port") {
		c.ServerPort = viper.GetInt("server.port")
	}
	if viper.IsSet("server.tls") {
		c.ServerTLS = viper.GetBool("server.tls")
	}
	if viper.IsSet("lipsync.ms_per_frame") {
		c.MsPerFrame = viper.GetInt("lipsync.ms_per_frame")
	}
	if viper.IsSet("lipsync.cue_dir") {
		c.CueDir = viper.GetString("lipsync.cue_dir")
	}
	if viper.IsSet("store.path") {
		c.StorePath = viper.GetString("store.path")
	}
	if viper.IsSet("mqtt.broker") {
		c.MQTTBroker = viper.GetString("mqtt.broker")
	}
	if viper.IsSet("mqtt.topic") {
		c.MQTTTopic = viper.GetString("mqtt.topic")
	}
	if viper.IsSet("mqtt.client_id") {
		c.MQTTClientID = viper.GetString("mqtt.client_id")
	}
	if viper.IsSet("joystick.display_hz") {
		c.DisplayRate = viper.GetFloat64("joystick.display_hz")
	}
	if viper.IsSet("dial_timeout") {
		c.DialTimeout = viper.GetDuration("dial_timeout")
	}
	if viper.GetBool("debug") {
		c.Debug = true
	}
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	overlay(&loaded)

	if loaded.StorePath == "" {
		p, err := gap.NewScope(gap.User, appName).DataPath("console.db")
		if err != nil {
			return fmt.Errorf("unable to find data directory: %w", err)
		}
		loaded.StorePath = p
	}

	if err := loaded.Validate(); err != nil {
		return err
	}

	if loaded.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Configuration loaded", "server", loaded.WebsocketURL(), "store", loaded.StorePath)

	cfg = loaded
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.PersistentFlags().String("server", "", "creature server host")
	rootCmd.PersistentFlags().Int("port", 0, "creature server port")
	rootCmd.PersistentFlags().Int("ms-per-frame", 0, "animation frame interval in milliseconds")
	rootCmd.PersistentFlags().String("store", "", "path of the local track database")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("lipsync.ms_per_frame", rootCmd.PersistentFlags().Lookup("ms-per-frame"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(
		logsCmd,
		lipsyncCmd,
		watchCmd,
		joystickCmd,
		tracksCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("CREATURE_CONSOLE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("creature_console")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], appName+".yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
