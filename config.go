package indexsync

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config consolidates settings of every component
type Config struct {
	Database    DatabaseConfig    `json:"database" yaml:"database"`
	Detection   DetectionConfig   `json:"detection" yaml:"detection"`
	Dispatch    DispatchConfig    `json:"dispatch" yaml:"dispatch"`
	Integration IntegrationConfig `json:"integration" yaml:"integration"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host" yaml:"host" validate:"required"`
	Port            int           `json:"port" yaml:"port" validate:"min=1,max=65535"`
	Database        string        `json:"database" yaml:"database" validate:"required"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	MaxConnections  int           `json:"maxConnections" yaml:"maxConnections" validate:"gt=0"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	// LinkField is the column joining value rows to entities: entity_id or row_id.
	LinkField  string     `json:"linkField" yaml:"linkField" validate:"oneof=entity_id row_id"`
	TableNames TableNames `json:"tableNames" yaml:"tableNames"`
}

// TableNames names the catalog tables read by the repositories.
type TableNames struct {
	Attribute   string `json:"attribute" yaml:"attribute" validate:"required"`
	ValuePrefix string `json:"valuePrefix" yaml:"valuePrefix" validate:"required"`
	Entity      string `json:"entity" yaml:"entity" validate:"required"`
	SuperLink   string `json:"superLink" yaml:"superLink" validate:"required"`
	StockItem   string `json:"stockItem" yaml:"stockItem" validate:"required"`
	Category    string `json:"category" yaml:"category" validate:"required"`
	Store       string `json:"store" yaml:"store" validate:"required"`
	StoreGroup  string `json:"storeGroup" yaml:"storeGroup" validate:"required"`
}

// DetectionConfig tunes the change detectors
type DetectionConfig struct {
	// WatchedAttributes overrides the watched list read from attribute configuration.
	WatchedAttributes []string `json:"watchedAttributes" yaml:"watchedAttributes"`
	// CompositeProductTypes are product types whose stock pseudo-attribute always differs.
	CompositeProductTypes []ProductType `json:"compositeProductTypes" yaml:"compositeProductTypes"`
	// CompositeExcludedAttributes are skipped when diffing composite products.
	CompositeExcludedAttributes []string `json:"compositeExcludedAttributes" yaml:"compositeExcludedAttributes"`
	// IncludeParentsOnChildSave adds configurable parents of a saved variant to the record.
	IncludeParentsOnChildSave bool `json:"includeParentsOnChildSave" yaml:"includeParentsOnChildSave"`
	// StockScopeStoreID is the store the stock provider resolves statuses in.
	StockScopeStoreID int64 `json:"stockScopeStoreId" yaml:"stockScopeStoreId" validate:"gte=0"`
}

// DispatchConfig controls the update event dispatcher
type DispatchConfig struct {
	ValidatePayloads bool `json:"validatePayloads" yaml:"validatePayloads"`
	HistorySize      int  `json:"historySize" yaml:"historySize" validate:"gte=0"`
}

// IntegrationConfig holds the per-store search service API keys. A store
// without a key is not integrated.
type IntegrationConfig struct {
	Stores map[int64]string `json:"stores" yaml:"stores"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig contains metrics collection settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "catalog",
			Username:        "postgres",
			SSLMode:         "disable",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
			LinkField:       "entity_id",
			TableNames:      DefaultTableNames(),
		},
		Detection: DetectionConfig{
			CompositeProductTypes: []ProductType{
				ProductTypeConfigurable,
				ProductTypeBundle,
				ProductTypeGrouped,
			},
			CompositeExcludedAttributes: []string{AttributeQuantityAndStatus},
			IncludeParentsOnChildSave:   true,
			StockScopeStoreID:           DefaultStoreID,
		},
		Dispatch: DispatchConfig{
			ValidatePayloads: true,
			HistorySize:      1000,
		},
		Integration: IntegrationConfig{
			Stores: map[int64]string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultTableNames returns the catalog table names of a stock installation.
func DefaultTableNames() TableNames {
	return TableNames{
		Attribute:   "catalog_product_attribute",
		ValuePrefix: "catalog_product_entity",
		Entity:      "catalog_product_entity",
		SuperLink:   "catalog_product_super_link",
		StockItem:   "cataloginventory_stock_item",
		Category:    "catalog_category_entity",
		Store:       "store",
		StoreGroup:  "store_group",
	}
}

var configValidator = newConfigValidator()

// newConfigValidator reports fields by their json names.
func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{
				Field:   configFieldPath(fe.Namespace()),
				Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
			}
		}
		return &ConfigError{Field: "config", Message: err.Error()}
	}

	if c.Database.ConnMaxIdleTime > c.Database.ConnMaxLifetime && c.Database.ConnMaxLifetime > 0 {
		return &ConfigError{Field: "database.connMaxIdleTime", Message: "must not exceed connMaxLifetime"}
	}

	for storeID, key := range c.Integration.Stores {
		if storeID <= DefaultStoreID {
			return &ConfigError{Field: "integration.stores", Message: "store ids must be greater than 0"}
		}
		if strings.TrimSpace(key) == "" {
			return &ConfigError{Field: "integration.stores", Message: fmt.Sprintf("store %d has an empty api key", storeID)}
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return &ConfigError{Field: "metrics.path", Message: "must start with '/'"}
	}

	return nil
}

// configFieldPath turns "Config.database.tableNames.entity" into "database.tableNames.entity".
func configFieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
