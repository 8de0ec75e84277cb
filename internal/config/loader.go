package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "SUNMONLOK_CONFIG"

// Source records where a YAML key was set.
type Source struct {
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Path    string
	Loaded  bool              // false when the file does not exist
	Sources map[string]Source // YAML path -> position in Path
}

func DefaultConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sunmonlok", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	res, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadFromPath loads path over the defaults. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		return &LoadResult{Config: cfg, Path: path, Sources: map[string]Source{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}
	return loadBytes(path, data)
}

func loadBytes(path string, data []byte) (*LoadResult, error) {
	var raw RawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var doc yaml.Node
	sources := map[string]Source{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		sources = collectSources(&doc, path)
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err != nil {
		return nil, attachSourceContext(err, sources)
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}
	return &LoadResult{Config: cfg, Path: path, Loaded: true, Sources: sources}, nil
}

// Marshal renders the effective config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	raw := cfg.ToRaw()
	data, err := yaml.Marshal(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	collectSourcesRec(node, file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		path := keyNode.Value
		if prefix != "" {
			path = prefix + "." + path
		}
		out[path] = Source{File: file, Line: valNode.Line, Column: valNode.Column}
		collectSourcesRec(valNode, file, path, out)
	}
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
