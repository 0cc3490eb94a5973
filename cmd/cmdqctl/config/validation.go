package config

import (
	"fmt"
	"strings"

	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/validate"
	"github.com/spf13/cobra"
)

// ValidateGlobalFlags validates global flags before any command runs
func ValidateGlobalFlags(cmd *cobra.Command, args []string) error {
	if err := ValidateAPIAddress(); err != nil {
		return err
	}

	if err := ValidateOutputFormat(); err != nil {
		return err
	}

	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	if err := validate.ValidateField(Global.Timeout, "min=1"); err != nil {
		return fmt.Errorf("timeout must be at least 1 second, got %d", Global.Timeout)
	}

	return nil
}

// ValidateAPIAddress checks that the API address is a routable host:port
func ValidateAPIAddress() error {
	netAddr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid API address - expected format: host:port (e.g., 127.0.0.1:8008)")
	}

	if netAddr.Host == "0.0.0.0" {
		logging.Error("Unroutable API address '0.0.0.0:%d' - cannot connect to 0.0.0.0", netAddr.Port)
		return fmt.Errorf("unroutable API address - use 127.0.0.1 or a specific IP address")
	}

	if err := validate.ValidateField(netAddr.Port, "required,min=1,max=65535"); err != nil {
		logging.Error("Invalid API port %d: %v", netAddr.Port, err)
		return fmt.Errorf("API port must be between 1-65535")
	}

	return nil
}

// ValidateOutputFormat checks the --output value
func ValidateOutputFormat() error {
	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
	}
	if !validOutputs[Global.Output] {
		logging.Error("Invalid output format '%s' - valid formats are: table, json", Global.Output)
		return fmt.Errorf("invalid output format - valid: table, json")
	}
	return nil
}

// ParseQueryData turns key=value pairs into a map. Later keys win.
func ParseQueryData(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	data := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid data %q - expected key=value", pair)
		}
		data[key] = value
	}
	return data, nil
}
