package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		env: "FINSIGHT_SERVER_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		env: "FINSIGHT_PROVIDER_BASE_URL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Provider.BaseURL = v.(string) },
	},
	{
		env: "FINSIGHT_PROVIDER_API_KEY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Provider.APIKey = v.(string) },
	},
	{
		env: "FINSIGHT_PROVIDER_CHAT_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Provider.ChatModel = v.(string) },
	},
	{
		env: "FINSIGHT_PROVIDER_EMBED_MODEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Provider.EmbedModel = v.(string) },
	},
	{
		env: "FINSIGHT_DEFAULT_MODE", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Modes.Default = v.(string) },
	},
	{
		env: "FINSIGHT_ENABLED_MODES", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Modes.Enabled = v.(string) },
	},
	{
		env: "FINSIGHT_STORAGE_DATA_DIR", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
	},
	{
		env: "FINSIGHT_LOG_LEVEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
	{
		env: "FINSIGHT_API_TOKEN", typ: kString,
		apply: func(cfg *Config, v any) { cfg.API.Token = v.(string) },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
