package main

import (
	"fmt"
	"os"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generate the creature-console man page",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return fmt.Errorf("unable to build man page: %w", err)
		}

		page = page.WithSection("Environment",
			"Settings can also be given as CREATURE_CONSOLE_* variables. "+
				"The server address, frame interval and MQTT broker also honour "+
				"CREATURE_SERVER_HOST, CREATURE_SERVER_PORT, CREATURE_MS_PER_FRAME "+
				"and CREATURE_MQTT_BROKER.")

		_, err = fmt.Fprint(os.Stdout, page.Build(roff.NewDocument()))
		return err
	},
}
