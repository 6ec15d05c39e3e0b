// Package config loads shopimg settings from file, environment and defaults.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/AnyUserName/shopimg-cli/internal/rule"
)

type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type IdentityConfig struct {
	ContentDigest bool
}

type AppConfig struct {
	Environment string
	API         APIConfig
	Identity    IdentityConfig
	Rules       map[string]rule.Rule
}

// Load reads shopimg.yaml from the usual places, or from path when given.
// Environment variables use the SHOPIMG_ prefix, e.g. SHOPIMG_API_BASEURL.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shopimg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/shopimg")
	}

	v.SetEnvPrefix("SHOPIMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	fillRules(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:5000/api")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("identity.contentdigest", false)

	for _, name := range rule.Names() {
		r, _ := rule.Get(name)
		prefix := "rules." + name + "."
		v.SetDefault(prefix+"type", r.Type)
		v.SetDefault(prefix+"width", r.Width)
		v.SetDefault(prefix+"height", r.Height)
		v.SetDefault(prefix+"maxbytes", r.MaxBytes)
		v.SetDefault(prefix+"allowedtypes", r.AllowedTypes)
		v.SetDefault(prefix+"startquality", r.StartQuality)
		v.SetDefault(prefix+"minquality", r.MinQuality)
		v.SetDefault(prefix+"qualitystep", r.QualityStep)
	}
}

// fillRules names every rule after its key and gives custom rules the
// variant preset's values for anything they leave out.
func fillRules(cfg *AppConfig) {
	base, _ := rule.Get("variant")
	for name, r := range cfg.Rules {
		r.Name = name
		if r.Type == "" {
			r.Type = base.Type
		}
		if r.Width == 0 && r.Height == 0 {
			r.Width, r.Height = base.Width, base.Height
		}
		if r.MaxBytes == 0 {
			r.MaxBytes = base.MaxBytes
		}
		if len(r.AllowedTypes) == 0 {
			r.AllowedTypes = base.AllowedTypes
		}
		if r.StartQuality == 0 {
			r.StartQuality = base.StartQuality
		}
		if r.MinQuality == 0 {
			r.MinQuality = base.MinQuality
		}
		if r.QualityStep == 0 {
			r.QualityStep = base.QualityStep
		}
		cfg.Rules[name] = r
	}
}

// Rule returns a validated rule by name.
func (c *AppConfig) Rule(name string) (rule.Rule, error) {
	r, ok := c.Rules[name]
	if !ok {
		return rule.Rule{}, fmt.Errorf("unknown rule %q (available: %s)", name, strings.Join(c.RuleNames(), ", "))
	}
	if err := r.Validate(); err != nil {
		return rule.Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	return r, nil
}

// RuleNames lists configured rules in sorted order.
func (c *AppConfig) RuleNames() []string {
	names := make([]string, 0, len(c.Rules))
	for n := range c.Rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
