package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/creatures/console/internal/bridge"
	"github.com/creatures/console/internal/joystick"
)

var joystickCmd = &cobra.Command{
	Use:     "joystick",
	Short:   "Show joystick samples published over MQTT",
	Long:    paragraph(fmt.Sprintf("\n%s the joystick feed from the MQTT broker and show the latest axes and buttons.", keyword("Mirror"))),
	Example: paragraph("creature-console joystick\nCREATURE_MQTT_BROKER=tcp://pi.local:1883 creature-console joystick"),
	Args:    cobra.NoArgs,
	RunE:    runJoystick,
}

func runJoystick(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = appName + "-" + uuid.NewString()[:8]
	}

	var src *joystick.MQTTSource
	client := joystick.NewClient(cfg.MQTTBroker, clientID, func(err error) {
		log.Error("MQTT connection lost", "err", err)
		src.ConnectionLost(err)
	})
	src = joystick.NewMQTTSource(client, cfg.MQTTTopic,
		joystick.WithTimeout(cfg.DialTimeout),
		joystick.WithBadPayloadHandler(func(err error) {
			log.Warn("Skipping joystick payload", "err", err)
		}),
	)

	throttle := joystick.NewThrottle(cfg.DisplayRate)
	redraw := term.IsTerminal(int(os.Stdout.Fd()))

	b := bridge.New[joystick.Sample](src,
		bridge.WithObserver(bridgeObserver("joystick")),
		bridge.WithQueueObserver(queueObserver("joystick")),
	)

	fmt.Printf("Listening on %s %s\n", keyword(cfg.MQTTTopic), faint(cfg.MQTTBroker))
	err := b.Run(ctx, func(s joystick.Sample) error {
		if !throttle.Offer(s) {
			return nil
		}
		if redraw {
			fmt.Printf("\r\033[K%s", s)
			return nil
		}
		fmt.Println(s)
		return nil
	})
	if redraw {
		fmt.Println()
	}
	if errors.Is(err, bridge.ErrUpstream) {
		return fmt.Errorf("joystick feed from %s failed: %w", cfg.MQTTBroker, err)
	}
	return err
}
