package events

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/util"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector"
	"github.com/spf13/cobra"
)

var (
	// EventsCmd represents the event command group
	EventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Listen for core events or publish events",
	}

	listenCmd = &cobra.Command{
		Use:   "listen [event-type...]",
		Short: "Print pushed events until interrupted (defaults to all events)",
		RunE:  runListen,
	}

	publishCmd = &cobra.Command{
		Use:   "publish [event-type] [data-json]",
		Short: "Publish an event to the core",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPublish,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connector flags
	util.SetupConnectorFlags(EventsCmd)

	// Add subcommands
	EventsCmd.AddCommand(listenCmd)
	EventsCmd.AddCommand(publishCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	eventTypes := args
	if len(eventTypes) == 0 {
		eventTypes = []string{connector.WildcardEvent}
	}

	c, err := util.NewConnector()
	if err != nil {
		return err
	}
	defer c.Disconnect()

	for _, eventType := range eventTypes {
		if _, err := c.On(eventType, printEvent); err != nil {
			return err
		}
	}

	fmt.Printf("listening for %v, press ctrl-c to stop\n", eventTypes)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var data json.RawMessage
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("event data must be valid JSON")
		}
		data = json.RawMessage(args[1])
	}

	c, err := util.NewConnector()
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if err := c.Publish(args[0], data); err != nil {
		return err
	}

	fmt.Println("published successfully")
	return nil
}

func printEvent(eventType string, data json.RawMessage) {
	fmt.Printf("%s: %s\n", eventType, string(data))
}
