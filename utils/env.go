package utils

import (
	"os"
	"strconv"
)

func GetEnvVar(envVar string) string {
	value, found := os.LookupEnv(envVar)
	if !found {
		panic("Env var '" + envVar + "' not specified")
	}
	return value
}

func GetEnvVarWithDefault(envVar, defaultValue string) string {
	value, found := os.LookupEnv(envVar)
	if !found || value == "" {
		return defaultValue
	}
	return value
}

func GetBoolEnvVarWithDefault(envVar string, defaultValue bool) bool {
	value, found := os.LookupEnv(envVar)
	if !found || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		panic("Env var '" + envVar + "' is not a boolean: " + value)
	}
	return parsed
}
