package factory

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/indexsync"
	"github.com/lychee-technology/indexsync/internal"
	"go.uber.org/zap"
)

type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// tableCollector is replaced in tests.
var tableCollector = collectTablesFromPool

// NewObserverWithConfig builds a fully wired ChangeObserver over the catalog
// tables reachable through pool. Records are published to publisher.
//
// Usage:
//
//	cfg := indexsync.DefaultConfig()
//	bus := myBus // any indexsync.Publisher
//	observer, err := factory.NewObserverWithConfig(cfg, pool, bus)
//	if err != nil {
//	    // handle error
//	}
//	observer.AfterProductSave(ctx, before, after)
func NewObserverWithConfig(config *indexsync.Config, pool *pgxpool.Pool, publisher indexsync.Publisher) (indexsync.ChangeObserver, error) {
	if config == nil {
		return nil, indexsync.NewConfigurationError("config is required")
	}
	if publisher == nil {
		return nil, indexsync.NewConfigurationError("publisher is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tables, err := tableCollector(pool)
	if err != nil {
		return nil, err
	}
	if missing := missingTables(tables, config.Database); len(missing) > 0 {
		return nil, fmt.Errorf("required tables are missing in the database: %v", missing)
	}

	names := config.Database.TableNames
	linkField := config.Database.LinkField

	attributes := internal.NewPostgresAttributeRepository(pool, names.Attribute)
	catalog := internal.NewPostgresCatalogRepository(pool, names, linkField)
	values := internal.NewPostgresAttributeValueStore(pool, names.ValuePrefix, linkField)
	integration := internal.NewStoreIntegration(config.Integration.Stores)

	scope := internal.NewImpactScopeResolver(catalog, catalog, integration)
	resolver := internal.NewScopedAttributeResolver(attributes, values, catalog)
	stock := internal.NewProductStockStatusProvider(
		catalog,
		resolver,
		scope.Children(),
		indexsync.ScopeContext{StoreID: config.Detection.StockScopeStoreID},
	)

	var watched indexsync.WatchedAttributeProvider = attributes
	if len(config.Detection.WatchedAttributes) > 0 {
		watched = staticWatchedAttributes(config.Detection.WatchedAttributes)
	}

	dispatcher, err := internal.NewUpdateEventDispatcher(publisher, config.Dispatch.ValidatePayloads)
	if err != nil {
		return nil, err
	}

	zap.S().Infow("change observer ready",
		"link_field", linkField,
		"integrated_stores", integration.IntegratedStoreIDs(),
		"validate_payloads", config.Dispatch.ValidatePayloads,
	)

	return internal.NewObserver(internal.Detectors{
		Product:   internal.NewProductSaveDetector(watched, scope, integration, config.Detection),
		Price:     internal.NewPriceDetector(catalog, integration),
		Stock:     internal.NewStockDetector(scope, stock, integration),
		Category:  internal.NewCategoryRelationDetector(scope),
		Link:      internal.NewConfigurableLinkDetector(integration),
		Attribute: internal.NewAttributeConfigDetector(attributes, attributes),
	}, dispatcher), nil
}

// NewPoolFromConfig opens and pings a pgx pool for cfg.
func NewPoolFromConfig(ctx context.Context, cfg indexsync.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// ConnString renders cfg as a postgres:// URL.
func ConnString(cfg indexsync.DatabaseConfig) string {
	var userInfo *url.Userinfo
	if cfg.Password != "" {
		userInfo = url.UserPassword(cfg.Username, cfg.Password)
	} else {
		userInfo = url.User(cfg.Username)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func collectTablesFromPool(pool queryPool) ([]string, error) {
	rows, err := pool.Query(context.Background(), `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tables, nil
}

// requiredTables lists every table the repositories read.
func requiredTables(cfg indexsync.DatabaseConfig) []string {
	names := cfg.TableNames
	required := []string{
		names.Attribute,
		names.Entity,
		names.SuperLink,
		names.StockItem,
		names.Category,
		names.Store,
		names.StoreGroup,
	}
	for _, backend := range []indexsync.BackendType{
		indexsync.BackendVarchar,
		indexsync.BackendInt,
		indexsync.BackendDecimal,
		indexsync.BackendText,
		indexsync.BackendDatetime,
	} {
		required = append(required, backend.ValueTable(names.ValuePrefix))
	}
	return required
}

func missingTables(existing []string, cfg indexsync.DatabaseConfig) []string {
	missing := []string{}
	for _, table := range requiredTables(cfg) {
		if !slices.Contains(existing, table) {
			missing = append(missing, table)
		}
	}
	return missing
}

// staticWatchedAttributes is the configured watched list, used instead of
// the is_watched flags when set.
type staticWatchedAttributes []string

func (s staticWatchedAttributes) WatchedAttributeCodes(context.Context) ([]string, error) {
	return slices.Clone(s), nil
}
