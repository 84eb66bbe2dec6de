package app

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ten/errors"
)

// Config is the top-level `ten` configuration object (spec §6 "App
// config (JSON)"): the App's listen URI, log handler configuration and
// any predefined graphs to start automatically on Run.
type Config struct {
	URI                  string            `mapstructure:"uri"`
	Log                  LogConfig         `mapstructure:"log"`
	PredefinedGraphs     []PredefinedGraph `mapstructure:"predefined_graphs"`
	PredefinedGraphsFile string            `mapstructure:"predefined_graphs_file"`
}

// LogConfig lists the handlers the structured logger (spec §4.5) should
// install at startup.
type LogConfig struct {
	Handlers []HandlerConfig `mapstructure:"handlers"`
}

// HandlerConfig is one logger handler: a list of matcher rules, a
// formatter kind, and an emitter destination.
type HandlerConfig struct {
	Matchers  []RuleConfig    `mapstructure:"matchers"`
	Formatter FormatterConfig `mapstructure:"formatter"`
	Emitter   EmitterConfig   `mapstructure:"emitter"`
}

type RuleConfig struct {
	Category string `mapstructure:"category"`
	Level    string `mapstructure:"level"`
}

// FormatterConfig selects "plain" (default) or "json", with optional
// coloring for "plain".
type FormatterConfig struct {
	Kind    string `mapstructure:"kind"`
	Colored bool   `mapstructure:"colored"`
}

// EmitterConfig selects "console" (default), "file" (Path required) or
// "network" (Network/Addr required).
type EmitterConfig struct {
	Kind    string `mapstructure:"kind"`
	Path    string `mapstructure:"path"`
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
	Stderr  bool   `mapstructure:"stderr"`
}

// PredefinedGraph is one entry of the `predefined_graphs` list: a graph
// to start automatically when the App comes up, in the same node/
// connection shape a client's StartGraph command carries.
type PredefinedGraph struct {
	GraphName   string        `mapstructure:"graph_name" yaml:"graph_name"`
	Nodes       []interface{} `mapstructure:"nodes" yaml:"nodes"`
	Connections []interface{} `mapstructure:"connections" yaml:"connections"`
}

// LoadConfig reads the `ten` object out of a JSON document at path,
// following the teacher's am.LoadFromFile shape: a fresh *viper.Viper
// per load, JSON rather than TOML, unmarshaled into a typed struct.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("TEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "app: read config %s", path), errors.CodeInvalidArgument)
	}

	sub := v.Sub("ten")
	if sub == nil {
		return nil, errors.WithCode(errors.Newf("app: config %s has no top-level \"ten\" object", path), errors.CodeInvalidJSON)
	}

	var cfg Config
	if err := sub.Unmarshal(&cfg); err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "app: unmarshal config %s", path), errors.CodeInvalidJSON)
	}
	if cfg.URI == "" {
		return nil, errors.WithCode(errors.Newf("app: config %s missing ten.uri", path), errors.CodeInvalidJSON)
	}

	if len(cfg.PredefinedGraphs) == 0 && cfg.PredefinedGraphsFile != "" {
		graphs, err := loadPredefinedGraphsYAML(cfg.PredefinedGraphsFile)
		if err != nil {
			return nil, err
		}
		cfg.PredefinedGraphs = graphs
	}
	return &cfg, nil
}

// loadPredefinedGraphsYAML reads ten.predefined_graphs_file as a YAML
// document, the alternate to listing predefined_graphs inline as JSON
// (spec §4.1, DOMAIN STACK: gopkg.in/yaml.v3 "predefined-graph YAML
// documents, alternate to inline JSON"). The file's top level is
// directly the list of graphs, in the same node/connection shape as an
// inline predefined_graphs entry.
func loadPredefinedGraphsYAML(path string) ([]PredefinedGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "app: read predefined graphs file %s", path), errors.CodeInvalidArgument)
	}
	var graphs []PredefinedGraph
	if err := yaml.Unmarshal(data, &graphs); err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "app: unmarshal predefined graphs file %s", path), errors.CodeInvalidJSON)
	}
	return graphs, nil
}
