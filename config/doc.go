// Package config loads option documents for an application environment.
//
// A Loader maps a location plus an environment name onto a layering.Map. The
// FileLoader dispatches on the file extension:
//
//	.json .jsonc     encoding/json after tidwall/jsonc strips comments
//	.yaml .yml       gopkg.in/yaml.v3
//	.toml            BurntSushi/toml
//	.ini             go-ini/ini, with [child : parent] inheritance
//	.hcl .properties .env   spf13/viper
//
// Documents may be split into environment sections. When an environment is
// given, the top-level map of that name is selected and its ExtendsKey chain
// is merged parent first with layering.Merge. Failures are reported as *Error
// wrapping one of the sentinel errors.
package config
