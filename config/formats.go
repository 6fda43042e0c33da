package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-ini/ini"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-appboot/layering"
)

func defaultDecoders() map[string]DecodeFunc {
	return map[string]DecodeFunc{
		"json":       DecodeJSON,
		"jsonc":      DecodeJSON,
		"yaml":       DecodeYAML,
		"yml":        DecodeYAML,
		"toml":       DecodeTOML,
		"ini":        DecodeINI,
		"hcl":        ViperDecoder("hcl"),
		"properties": ViperDecoder("properties"),
		"props":      ViperDecoder("properties"),
		"env":        ViperDecoder("dotenv"),
		"dotenv":     ViperDecoder("dotenv"),
	}
}

// DecodeJSON decodes JSON documents. Comments and trailing commas are
// tolerated.
func DecodeJSON(data []byte) (layering.Map, error) {
	var raw map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, err
	}
	return layering.FromMap(raw), nil
}

// DecodeYAML decodes YAML documents.
func DecodeYAML(data []byte) (layering.Map, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return layering.FromMap(raw), nil
}

// DecodeTOML decodes TOML documents.
func DecodeTOML(data []byte) (layering.Map, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, err
	}
	return layering.FromMap(raw), nil
}

// DecodeINI decodes INI documents. Keys in the default section land at the top
// level. Named sections become nested maps; a section declared as
// "[child : parent]" records parent under ExtendsKey. Dotted keys such as
// "settings.gc.percent" expand into nested maps.
func DecodeINI(data []byte) (layering.Map, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	doc := layering.Map{}
	for _, section := range file.Sections() {
		target := doc
		name := section.Name()
		if name != ini.DefaultSection {
			child, parent := splitSectionName(name)
			sectionMap := layering.Map{}
			if parent != "" {
				sectionMap[ExtendsKey] = layering.Scalar(parent)
			}
			doc[child] = layering.Nested(sectionMap)
			target = sectionMap
		}
		for _, key := range section.Keys() {
			if err := assignDotted(target, key.Name(), layering.Scalar(key.Value())); err != nil {
				return nil, fmt.Errorf("section %q: %w", name, err)
			}
		}
	}
	return doc, nil
}

// ViperDecoder returns a DecodeFunc that delegates to viper for configType
// (hcl, properties, dotenv, ...). Viper lower-cases keys.
func ViperDecoder(configType string) DecodeFunc {
	return func(data []byte) (layering.Map, error) {
		v := viper.New()
		v.SetConfigType(configType)
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return layering.FromMap(v.AllSettings()), nil
	}
}

func splitSectionName(name string) (child, parent string) {
	parts := strings.SplitN(name, ":", 2)
	child = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		parent = strings.TrimSpace(parts[1])
	}
	return child, parent
}

func assignDotted(target layering.Map, key string, value layering.Value) error {
	segments := strings.Split(key, layering.PathSeparator)
	current := target
	for i, segment := range segments {
		if segment == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		if i == len(segments)-1 {
			current[segment] = value
			return nil
		}
		existing, ok := current[segment]
		if !ok {
			next := layering.Map{}
			current[segment] = layering.Nested(next)
			current = next
			continue
		}
		if !existing.IsMap() {
			return fmt.Errorf("cannot create sub-key for %q as %q already holds a value", segment, strings.Join(segments[:i+1], layering.PathSeparator))
		}
		current = existing.Map()
	}
	return nil
}

func sortedStrings(values []string) []string {
	sort.Strings(values)
	return values
}
