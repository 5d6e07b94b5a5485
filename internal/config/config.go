package config

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Port          string `yaml:"port"`
	DBDriver      string `yaml:"db_driver"`
	DBDSN         string `yaml:"db_dsn"`
	Secret        string `yaml:"secret"`
	ClientSecrets string `yaml:"client_secrets"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ClientSecrets mirrors the credentials file downloaded from the provider's
// developer console: {"web": {"client_id": ..., "client_secret": ...}}.
type ClientSecrets struct {
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

func LoadClientSecrets(filename string) (*ClientSecrets, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var secrets ClientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, err
	}

	return &secrets, nil
}
