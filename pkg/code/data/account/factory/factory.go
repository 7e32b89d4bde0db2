package factory

import (
	"context"
	"database/sql"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/code/data/account"
	account_leveldb "github.com/code-payments/code-custody/pkg/code/data/account/leveldb"
	account_memory "github.com/code-payments/code-custody/pkg/code/data/account/memory"
	account_postgres "github.com/code-payments/code-custody/pkg/code/data/account/postgres"
	pg "github.com/code-payments/code-custody/pkg/database/postgres"
)

type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypePostgres StoreType = "postgres"
	StoreTypeLevelDB  StoreType = "leveldb"
)

var ErrUnknownStoreType = errors.New("unknown account store type")

// NewStore opens the account store selected by the provided config. The
// returned function releases the store's underlying resources.
func NewStore(ctx context.Context, configProvider ConfigProvider) (account.Store, func() error, error) {
	conf := configProvider()

	storeType := StoreType(conf.storeType.Get(ctx))
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":       "account/factory",
		"store_type": storeType,
	})

	switch storeType {
	case StoreTypeMemory:
		log.Info("using in memory account store")
		return account_memory.New(), func() error { return nil }, nil

	case StoreTypeLevelDB:
		path := conf.levelDBPath.Get(ctx)
		store, closeFunc, err := account_leveldb.Open(path, conf.levelDBSync.Get(ctx))
		if err != nil {
			return nil, nil, err
		}

		log.WithField("path", path).Info("using leveldb account store")
		return store, closeFunc, nil

	case StoreTypePostgres:
		db, err := openPostgres(ctx, conf)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to connect to postgres")
		}

		log.WithField("host", conf.postgresHost.Get(ctx)).Info("using postgres account store")
		return account_postgres.New(db), db.Close, nil
	}

	return nil, nil, errors.Wrapf(ErrUnknownStoreType, "%q", storeType)
}

func openPostgres(ctx context.Context, conf *conf) (*sql.DB, error) {
	pgConfig := &pg.Config{
		User:     conf.postgresUser.Get(ctx),
		Password: conf.postgresPassword.Get(ctx),
		Host:     conf.postgresHost.Get(ctx),
		Port:     int(conf.postgresPort.Get(ctx)),
		DbName:   conf.postgresDbName.Get(ctx),

		MaxOpenConnections: int(conf.postgresMaxOpenConnections.Get(ctx)),
		MaxIdleConnections: int(conf.postgresMaxIdleConnections.Get(ctx)),
		ConnMaxLifetime:    conf.postgresConnMaxLifetime.Get(ctx),
	}

	if !conf.postgresAwsIam.Get(ctx) {
		return pg.NewWithUsernameAndPassword(pgConfig)
	}

	awsConfig, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return pg.NewWithAwsIam(pgConfig, awsConfig)
}
