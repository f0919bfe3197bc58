package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	lexical "github.com/goliatone/go-lexical"
	"github.com/goliatone/go-lexical/layering"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "lexical.yaml"

// Config holds every setting that can come from the config file or flags.
type Config struct {
	Flags   string         `yaml:"flags"`
	Format  string         `yaml:"format"`
	Engine  string         `yaml:"engine"`
	Policy  string         `yaml:"policy"`
	Color   string         `yaml:"color"`
	Actor   string         `yaml:"actor"`
	Include []string       `yaml:"include"`
	Exclude []string       `yaml:"exclude"`
	Where   []string       `yaml:"where"`
	Require []string       `yaml:"require"`
	Args    map[string]any `yaml:"args"`
	Verbose bool           `yaml:"verbose"`
}

func defaultConfig() Config {
	return Config{
		Flags:  lexical.WriteUpdate.String(),
		Engine: lexical.EngineExpr,
		Policy: "unique",
		Color:  "auto",
	}
}

// loadConfigFile reads path. A missing file is an error only when required.
func loadConfigFile(path string, required bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return Config{}, false, nil
	}
	if err != nil {
		return Config{}, false, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, false, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, true, nil
}

// resolveConfig layers flags over the config file over defaults.
func resolveConfig(path string, fromFlags Config) (Config, []string, error) {
	required := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	fromFile, found, err := loadConfigFile(path, required)
	if err != nil {
		return Config{}, nil, err
	}

	layers := []layering.Layer[Config]{
		{Name: "defaults", Level: layering.LevelDefaults, Value: defaultConfig()},
		{Name: "flags", Level: layering.LevelFlags, Value: fromFlags},
	}
	if found {
		layers = append(layers, layering.Layer[Config]{Name: path, Level: layering.LevelFile, Value: fromFile})
	}
	chain := layering.NewChain(layers...)
	return chain.Merge(), chain.Names(), nil
}

func (c Config) writeFlags() (lexical.WriteFlags, error) {
	return lexical.ParseWriteFlags(c.Flags)
}

func (c Config) valuePolicy() (lexical.ValuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Policy)) {
	case "", "unique":
		return lexical.UniqueValues, nil
	case "append":
		return lexical.AppendValues, nil
	default:
		return 0, fmt.Errorf("unknown value policy %q", c.Policy)
	}
}

// valueRule is a parsed --include or --exclude argument of the form
// name=v1,v2 or name[occurrence]=v1,v2. An empty value list matches lines
// without the parameter.
type valueRule struct {
	name       string
	occurrence int
	values     []string
}

func parseValueRule(text string) (valueRule, error) {
	name, list, ok := strings.Cut(text, "=")
	if !ok {
		return valueRule{}, fmt.Errorf("rule %q: want name=value", text)
	}
	rule := valueRule{name: strings.TrimSpace(name), occurrence: lexical.AnyOccurrence}
	if open := strings.IndexByte(rule.name, '['); open >= 0 {
		if !strings.HasSuffix(rule.name, "]") {
			return valueRule{}, fmt.Errorf("rule %q: unterminated occurrence", text)
		}
		n, err := strconv.Atoi(rule.name[open+1 : len(rule.name)-1])
		if err != nil || n < 0 {
			return valueRule{}, fmt.Errorf("rule %q: bad occurrence", text)
		}
		rule.name, rule.occurrence = rule.name[:open], n
	}
	if rule.name == "" {
		return valueRule{}, fmt.Errorf("rule %q: missing parameter name", text)
	}
	for _, v := range strings.Split(list, ",") {
		rule.values = append(rule.values, strings.TrimSpace(v))
	}
	return rule, nil
}
