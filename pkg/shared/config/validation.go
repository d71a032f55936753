package config

import (
	"fmt"
	"strings"
)

var validLogLevels = []string{"", "TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLoggerConfig(&cfg.Logger); err != nil {
		return fmt.Errorf("YAML global config: logger directive is invalid: %w", err)
	}
	if err := ValidateTransformConfig(&cfg.Transform); err != nil {
		return fmt.Errorf("YAML global config: transform directive is invalid: %w", err)
	}
	return nil
}

// ValidateLoggerConfig checks if the logger configuration has valid values.
func ValidateLoggerConfig(loggerConfig *Logger) error {
	if loggerConfig == nil {
		return fmt.Errorf("logger configuration is nil")
	}
	level := strings.ToUpper(loggerConfig.Level)
	for _, valid := range validLogLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q", loggerConfig.Level)
}

// ValidateTransformConfig checks if the transform configuration has valid values.
// Module order entries must be bare file names; the modules directory alone
// decides where modules are resolved from.
func ValidateTransformConfig(transformConfig *Transform) error {
	if transformConfig == nil {
		return fmt.Errorf("transform configuration is nil")
	}

	for _, name := range transformConfig.ModuleOrder {
		if name == "" {
			return fmt.Errorf("module_order contains an empty entry")
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("module_order entry %q must be a bare file name, not a path", name)
		}
	}
	return nil
}
