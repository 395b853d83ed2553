package core

import (
	"os"
	"strings"
)

// Environment variables understood by the warehouse.
const (
	EnvEnabled = "LLM_WAREHOUSE_ENABLED"
	EnvDebug   = "LLM_WAREHOUSE_DEBUG"
	EnvConfig  = "LLM_WAREHOUSE_CONFIG"
	EnvURL     = "LLM_WAREHOUSE_URL"
	EnvAPIKey  = "LLM_WAREHOUSE_API_KEY"
	EnvSink    = "LLM_WAREHOUSE_SINK"
)

// Truthy reports whether a boolean-like string is on.
// "", "0", "false" (any case), "no" and "off" are false; everything else is true.
func Truthy(v string) bool {
	switch v {
	case "", "0", "no", "off":
		return false
	}
	return !strings.EqualFold(v, "false")
}

// EnvTruthy reads name from the environment and applies Truthy.
func EnvTruthy(name string) bool {
	return Truthy(os.Getenv(name))
}

// DebugEnabled reports whether diagnostic output is switched on.
func DebugEnabled() bool {
	return EnvTruthy(EnvDebug)
}
