package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/util"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/mockcore"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ServeCmd starts a mock core process for development and testing
	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start a mock core process",
		Long:  `Start a mock core that speaks the connector wire protocol on TCP and WebSocket listeners. Useful as a development stand-in for the desktop core. Configuration can be set via command line flags or environment variables (CORE_<flag>, e.g. CORE_TCP_ADDR=:9000).`,
		RunE:  run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "tcp-addr"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:8193", util.WrapString("Address of the newline-delimited TCP listener (empty disables it)"))

	key = "ws-addr"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:8192", util.WrapString("Address of the WebSocket listener (empty disables it)"))

	key = "serializer"
	ServeCmd.PersistentFlags().String(key, common.DefaultSerializer, util.WrapString("Wire serializer to use (json, gob)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("Log level (debug, info, warn, error)"))
}

func run(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.SetLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}

	ser, err := serializer.New(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	server := mockcore.NewServer(ser)
	defer server.Close()

	tcpAddr := viper.GetString("tcp-addr")
	wsAddr := viper.GetString("ws-addr")
	if tcpAddr == "" && wsAddr == "" {
		return fmt.Errorf("at least one of tcp-addr and ws-addr is required")
	}

	if tcpAddr != "" {
		addr, err := server.ListenTCP(tcpAddr)
		if err != nil {
			return err
		}
		fmt.Printf("mock core: tcp://%s\n", addr)
	}
	if wsAddr != "" {
		addr, err := server.ListenWS(wsAddr)
		if err != nil {
			return err
		}
		fmt.Printf("mock core: ws://%s\n", addr)
	}

	fmt.Println("press ctrl-c to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}
