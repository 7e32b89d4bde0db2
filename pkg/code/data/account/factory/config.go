package factory

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/code-custody/pkg/config"
	viperconfig "github.com/code-payments/code-custody/pkg/config/viper"
)

const (
	StoreTypeConfigKey = "account_store.type"
	defaultStoreType   = string(StoreTypeMemory)

	LevelDBPathConfigKey = "account_store.leveldb.path"
	defaultLevelDBPath   = "data/accounts"

	LevelDBSyncConfigKey = "account_store.leveldb.sync"
	defaultLevelDBSync   = true

	PostgresUserConfigKey = "account_store.postgres.user"
	defaultPostgresUser   = ""

	PostgresPasswordConfigKey = "account_store.postgres.password"
	defaultPostgresPassword   = ""

	PostgresHostConfigKey = "account_store.postgres.host"
	defaultPostgresHost   = "localhost"

	PostgresPortConfigKey = "account_store.postgres.port"
	defaultPostgresPort   = 5432

	PostgresDbNameConfigKey = "account_store.postgres.dbname"
	defaultPostgresDbName   = ""

	PostgresAwsIamConfigKey = "account_store.postgres.aws_iam"
	defaultPostgresAwsIam   = false

	PostgresMaxOpenConnectionsConfigKey = "account_store.postgres.max_open_connections"
	defaultPostgresMaxOpenConnections   = 0

	PostgresMaxIdleConnectionsConfigKey = "account_store.postgres.max_idle_connections"
	defaultPostgresMaxIdleConnections   = 0

	PostgresConnMaxLifetimeConfigKey = "account_store.postgres.conn_max_lifetime"
	defaultPostgresConnMaxLifetime   = time.Hour
)

type conf struct {
	storeType config.String

	levelDBPath config.String
	levelDBSync config.Bool

	postgresUser               config.String
	postgresPassword           config.String
	postgresHost               config.String
	postgresPort               config.Uint64
	postgresDbName             config.String
	postgresAwsIam             config.Bool
	postgresMaxOpenConnections config.Uint64
	postgresMaxIdleConnections config.Uint64
	postgresConnMaxLifetime    config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// NewViper returns a viper instance where every key can be overridden by the
// upper snake case environment variable of the same name (for example,
// account_store.type by ACCOUNT_STORE_TYPE).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// WithViperConfigs returns configuration pulled from v
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			storeType: viperconfig.NewStringConfig(v, StoreTypeConfigKey, defaultStoreType),

			levelDBPath: viperconfig.NewStringConfig(v, LevelDBPathConfigKey, defaultLevelDBPath),
			levelDBSync: viperconfig.NewBoolConfig(v, LevelDBSyncConfigKey, defaultLevelDBSync),

			postgresUser:               viperconfig.NewStringConfig(v, PostgresUserConfigKey, defaultPostgresUser),
			postgresPassword:           viperconfig.NewStringConfig(v, PostgresPasswordConfigKey, defaultPostgresPassword),
			postgresHost:               viperconfig.NewStringConfig(v, PostgresHostConfigKey, defaultPostgresHost),
			postgresPort:               viperconfig.NewUint64Config(v, PostgresPortConfigKey, defaultPostgresPort),
			postgresDbName:             viperconfig.NewStringConfig(v, PostgresDbNameConfigKey, defaultPostgresDbName),
			postgresAwsIam:             viperconfig.NewBoolConfig(v, PostgresAwsIamConfigKey, defaultPostgresAwsIam),
			postgresMaxOpenConnections: viperconfig.NewUint64Config(v, PostgresMaxOpenConnectionsConfigKey, defaultPostgresMaxOpenConnections),
			postgresMaxIdleConnections: viperconfig.NewUint64Config(v, PostgresMaxIdleConnectionsConfigKey, defaultPostgresMaxIdleConnections),
			postgresConnMaxLifetime:    viperconfig.NewDurationConfig(v, PostgresConnMaxLifetimeConfigKey, defaultPostgresConnMaxLifetime),
		}
	}
}
