package call

import (
	"encoding/json"
	"fmt"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/util"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector"
	"github.com/spf13/cobra"
)

var (
	// CallCmd routes a single service call to the core
	CallCmd = &cobra.Command{
		Use:   "call [service] [method] [payload-json]",
		Short: "Route a service call to the core and print the response",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connector flags
	util.SetupConnectorFlags(CallCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var payload json.RawMessage
	if len(args) == 3 {
		if !json.Valid([]byte(args[2])) {
			return fmt.Errorf("payload must be valid JSON")
		}
		payload = json.RawMessage(args[2])
	}

	c, err := util.NewConnector()
	if err != nil {
		return err
	}
	defer c.Disconnect()

	resp, err := c.Request(connector.Request{
		Service: args[0],
		Method:  args[1],
		Payload: payload,
	})
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("core reported failure: %s", resp.Error)
	}

	out, err := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
