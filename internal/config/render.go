package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Render serializes the configuration as json, yaml or toml.
func (c *Config) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return json.MarshalIndent(c, "", "  ")
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		return gotoml.Marshal(c)
	default:
		return nil, fmt.Errorf("unsupported format %q (want json, yaml or toml)", format)
	}
}

// CheckFile strictly decodes a config file and returns the keys it does not
// recognise. LoadConfig ignores them.
func CheckFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, err
		}
		var unknown []string
		for _, key := range md.Undecoded() {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return unknown, nil

	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return unknownFromMessage(err)
		}
		return nil, nil

	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return unknownFromMessage(err)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported config file type: %s", path)
	}
}

// unknownFromMessage turns a strict-decoder complaint about an unknown field
// into a reported key; other decode errors are returned as-is.
func unknownFromMessage(err error) ([]string, error) {
	msg := err.Error()
	for _, marker := range []string{"unknown field ", "not found in type"} {
		if strings.Contains(msg, marker) {
			return []string{msg}, nil
		}
	}
	return nil, err
}

// FindConfigFile returns the first existing config file in the state dir.
func FindConfigFile(stateDir string) (string, bool) {
	for _, ext := range []string{".json", ".yaml", ".yml", ".toml"} {
		p := filepath.Join(stateDir, "config"+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
