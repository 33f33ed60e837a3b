package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokenkeeper/internal/app"
)

// envPrefix marks environment variables that carry configuration
// (e.g., TOKENKEEPER_KEY__SOURCE → key.source).
const envPrefix = "TOKENKEEPER_"

// configSources lists where configuration is read from. Each layer overrides
// the previous one: file, then environment, then explicitly set flags.
// Dotenv files are already part of the environment at this point.
type configSources struct {
	file    string
	environ func() []string
	cmd     *cli.Command
}

func loadConfig(src configSources) (*app.Config, error) {
	k := koanf.New(".")

	layers := []struct {
		name string
		load func(*koanf.Koanf) error
	}{
		{"config file", src.loadFile},
		{"environment variables", src.loadEnv},
		{"CLI flags", src.loadFlags},
	}
	for _, layer := range layers {
		if err := layer.load(k); err != nil {
			return nil, fmt.Errorf("loading %s: %w", layer.name, err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (s configSources) loadFile(k *koanf.Koanf) error {
	if s.file == "" {
		return nil
	}
	return k.Load(file.Provider(s.file), toml.Parser())
}

func (s configSources) loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: func(name, value string) (string, any) { return envToKey(name), value },
		EnvironFunc:   s.environ,
	}), nil)
}

func (s configSources) loadFlags(k *koanf.Koanf) error {
	if s.cmd == nil {
		return nil
	}
	return k.Load(confmap.Provider(flagValues(s.cmd), "."), nil)
}

// envToKey maps an environment variable to its config key, or "" to skip it.
// The key variable itself never enters the config map.
func envToKey(name string) string {
	if name == app.DefaultConfigKeyEnvKey {
		return ""
	}
	name = strings.TrimPrefix(name, envPrefix)
	return strings.ToLower(strings.ReplaceAll(name, "__", "."))
}

// flagToKey maps a flag name to its config key: --key--source → key.source,
// --log-level → log_level.
func flagToKey(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "--", "."), "-", "_")
}

// flagValues collects explicitly set configuration flags, including those of
// parent commands. Unset flags are left out so their defaults do not shadow
// file or environment values.
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)
	for _, name := range cmd.FlagNames() {
		if _, ok := nonConfigFlags[name]; ok || !cmd.IsSet(name) {
			continue
		}
		if value := cmd.Value(name); value != nil {
			values[flagToKey(name)] = value
		}
	}
	return values
}
