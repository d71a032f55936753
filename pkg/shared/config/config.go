package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Logger    Logger    `yaml:"logger"`
	Transform Transform `yaml:"transform"`
	Formatter Formatter `yaml:"formatter"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// Transform holds pipeline behaviour settings. Boolean fields are
// pointers so the CLI can tell "unset" from "explicitly false" when
// merging with command-line flags.
type Transform struct {
	ModulesDir        string                 `yaml:"modules_dir"`
	ModuleOrder       []string               `yaml:"module_order"`
	ModuleConfig      map[string]interface{} `yaml:"module_config"`
	DryRun            *bool                  `yaml:"dry_run"`
	Verbose           *bool                  `yaml:"verbose"`
	SkipFormat        *bool                  `yaml:"skip_format"`
	SkipSecurityCheck *bool                  `yaml:"skip_security_check"`
}

type Formatter struct {
	Condense bool `yaml:"condense"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, &config); err != nil {
		return nil, err
	}
	config.Transform.ModuleConfig = NormalizeMap(config.Transform.ModuleConfig)

	return config, nil
}
