package config

import "go.uber.org/fx"

// Module provides *Config. An empty path falls back to CONFIG_FILE.
func Module(path string) fx.Option {
	return fx.Module("config",
		fx.Provide(
			func() (*Config, error) {
				if path != "" {
					return Load(path)
				}
				return NewConfig()
			},
		),
	)
}
