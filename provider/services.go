package provider

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teranos/plugctl/logger"
)

// BaseServices is what the host supplies when building a Table
type BaseServices interface {
	// Logger returns a logger named after the provider
	Logger(provider string) *zap.SugaredLogger

	// Config returns the provider's configuration section
	Config(provider string) Config
}

// Services is what providers receive during Register and Boot
type Services interface {
	BaseServices

	// SourceRoot returns the directory registered for a namespace
	SourceRoot(namespace string) (string, bool)
}

// Config provides access to one provider's configuration
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	Get(key string) interface{}
}

// ConfigKey is the am.toml table holding per-provider settings, keyed by provider name
const ConfigKey = "providers"

// DefaultServices backs BaseServices with the host logger and viper configuration
type DefaultServices struct {
	logger *zap.SugaredLogger
	config *viper.Viper
}

var _ BaseServices = (*DefaultServices)(nil)

// NewServices creates DefaultServices. v may be nil when no configuration is loaded.
func NewServices(l *zap.SugaredLogger, v *viper.Viper) *DefaultServices {
	return &DefaultServices{
		logger: logger.OrNop(l),
		config: v,
	}
}

// Logger returns a logger for the specified provider
func (s *DefaultServices) Logger(provider string) *zap.SugaredLogger {
	return s.logger.Named(provider)
}

// Config returns the [providers."<name>"] section, or an empty config
func (s *DefaultServices) Config(provider string) Config {
	if s.config != nil {
		for key, value := range s.config.GetStringMap(ConfigKey) {
			// viper lowercases keys
			if !strings.EqualFold(key, provider) {
				continue
			}
			if section, ok := value.(map[string]interface{}); ok {
				v := viper.New()
				_ = v.MergeConfigMap(section)
				return v
			}
		}
	}
	return viper.New()
}

// boundServices adds the Table's source roots to the host services
type boundServices struct {
	BaseServices
	table *Table
}

func (s boundServices) SourceRoot(namespace string) (string, bool) {
	return s.table.SourceRoot(namespace)
}
