package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# creature server the console talks to
server:
  host: "localhost"
  port: 8000
  tls: false

# lip sync resampling
lipsync:
  # one animation frame every N milliseconds
  ms_per_frame: 20
  # directory watched by "creature-console watch" when no DIR is given
  # cue_dir: "~/creatures/cues"

# local database for tracks and archived logs
# store:
#   path: "~/.local/share/creature-console/console.db"

# joystick samples published over MQTT
mqtt:
  broker: "tcp://localhost:1883"
  topic: "creatures/joystick"
  # client_id: "creature-console"

joystick:
  # redraws per second
  display_hz: 10

# how long to wait for the server or broker
dial_timeout: "5s"

# write debug output to the log file
debug: false
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the creature-console config file",
	Long:    paragraph(fmt.Sprintf("\n%s the creature-console config file. We'll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("creature-console config\ncreature-console config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Creature Console", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if configFile == "" {
			return errors.New("no config file location found")
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	_, err := os.Stat(configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	case err != nil:
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
