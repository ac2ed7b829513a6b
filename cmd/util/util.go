package util

import (
	"strings"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupConnectorFlags adds the common connector flags to a command
func SetupConnectorFlags(cmd *cobra.Command) {
	key := "url"
	cmd.PersistentFlags().String(key, common.DefaultURL, WrapString("The socket endpoint of the core (tcp://, ws:// or wss://)"))

	key = "timeout"
	cmd.PersistentFlags().Duration(key, common.DefaultTimeout, WrapString("Default timeout for a single request"))

	key = "reconnect"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to reconnect automatically after an unexpected connection loss"))

	key = "reconnect-delay"
	cmd.PersistentFlags().Duration(key, common.DefaultReconnectDelay, WrapString("Base delay between reconnection attempts (grows linearly per attempt)"))

	key = "max-reconnect-attempts"
	cmd.PersistentFlags().Int(key, common.DefaultMaxReconnectAttempts, WrapString("Maximum number of reconnection attempts"))

	key = "heartbeat-interval"
	cmd.PersistentFlags().Duration(key, common.DefaultHeartbeatInterval, WrapString("Keep-alive interval for socket transports (0 disables heartbeats)"))

	key = "serializer"
	cmd.PersistentFlags().String(key, common.DefaultSerializer, WrapString("Wire serializer to use (json, gob - gob only for websocket endpoints)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("core")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConnectorOptions reads the connector configuration from viper
func GetConnectorOptions() common.Options {
	opts := common.Options{
		URL:                  viper.GetString("url"),
		Timeout:              viper.GetDuration("timeout"),
		Reconnect:            viper.GetBool("reconnect"),
		ReconnectDelay:       viper.GetDuration("reconnect-delay"),
		MaxReconnectAttempts: viper.GetInt("max-reconnect-attempts"),
		HeartbeatInterval:    viper.GetDuration("heartbeat-interval"),
		Serializer:           viper.GetString("serializer"),
		LogLevel:             viper.GetString("log-level"),
	}
	return opts.Normalized()
}

// NewConnector creates a connected connector from the viper configuration
func NewConnector() (connector.IConnector, error) {
	opts := GetConnectorOptions()

	if err := common.SetLogLevel(opts.LogLevel); err != nil {
		return nil, err
	}

	c, err := connector.New(opts)
	if err != nil {
		return nil, err
	}

	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// RequestTimeout returns the configured request timeout
func RequestTimeout() time.Duration {
	return viper.GetDuration("timeout")
}
