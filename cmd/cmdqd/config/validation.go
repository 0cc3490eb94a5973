package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/validate"
)

// InitializeConfig applies environment variable overrides before validation.
func InitializeConfig() {
	if os.Getenv("DEBUG") == "true" {
		Global.LogLevel = "DEBUG"
		logging.Info("DEBUG environment variable detected, setting log level to DEBUG")
	}

	if endpoint := os.Getenv(EndpointEnvVar); endpoint != "" && !Global.endpointExplicitlySet {
		Global.Endpoint = endpoint
		logging.Info("%s environment variable detected, using batch endpoint %s", EndpointEnvVar, endpoint)
	}
}

// ValidateConfig validates and normalizes Global before the daemon starts.
func ValidateConfig() error {
	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	apiNetAddr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid API address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid API address: %w", err)
	}
	if err := validate.ValidateField(apiNetAddr.Port, "required,min=1,max=65535"); err != nil {
		logging.Error("API port cannot be 0 (auto-assigned) - clients need a known port")
		return fmt.Errorf("API address requires specific port (not 0): %w", err)
	}
	Global.APIAddr = apiNetAddr.Host
	Global.APIPort = apiNetAddr.Port

	if err := validate.ValidateNonNegativeDuration(Global.DebounceTime, "debounce time"); err != nil {
		return err
	}
	if err := validate.ValidateField(Global.MaxCommands, "min=1"); err != nil {
		return fmt.Errorf("max commands must be at least 1, got %d", Global.MaxCommands)
	}
	if err := validate.ValidateNonNegativeDuration(Global.DispatchTimeout, "dispatch timeout"); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(Global.WaitTimeout, "wait timeout"); err != nil {
		return err
	}
	if Global.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %v", Global.RateLimit)
	}
	if Global.RateLimit > 0 && Global.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when a rate limit is set, got %d", Global.RateBurst)
	}

	Global.Transport = strings.ToLower(Global.Transport)
	switch Global.Transport {
	case TransportStub:
		if err := validate.ValidateNonNegativeDuration(Global.StubDelay, "stub delay"); err != nil {
			return err
		}
		if err := validate.ValidateNonNegativeDuration(Global.StubJitter, "stub jitter"); err != nil {
			return err
		}

	case TransportHTTP:
		if Global.Endpoint == "" {
			Global.Endpoint = SelfEndpoint(Global.APIAddr, Global.APIPort)
			logging.Info("No --endpoint given, HTTP transport will post to this daemon's batch endpoint %s", Global.Endpoint)
		}
		if err := validate.ValidateEndpointURL(Global.Endpoint); err != nil {
			logging.Error("Invalid batch endpoint: %v", err)
			return err
		}

	default:
		return fmt.Errorf("invalid transport: %s (must be %s or %s)", Global.Transport, TransportStub, TransportHTTP)
	}

	return nil
}

// SelfEndpoint returns the batch endpoint URL of a daemon bound to addr:port.
// Wildcard binds are reached through loopback.
func SelfEndpoint(addr string, port int) string {
	host := addr
	if ip := net.ParseIP(addr); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			host = "127.0.0.1"
		} else {
			host = "::1"
		}
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/api/v1/batch"
}
