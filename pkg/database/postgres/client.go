package pg

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Config describes a postgres connection pool.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	DbName   string

	// Zero values leave database/sql defaults in place.
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

func (c *Config) endpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// passwordDSN builds a URL DSN, escaping credentials.
func (c *Config) passwordDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.endpoint(),
		Path:     "/" + c.DbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) tokenDSN(token string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.User, token, c.DbName)
}

// NewWithAwsIam gets a DB connection pool authenticated with an IAM token
// generated from the AWS credentials in awsConfig. Only provisioned Aurora
// clusters support IAM authentication.
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(c *Config, awsConfig aws.Config) (*sql.DB, error) {
	rdsClient := rds.New(awsConfig)

	token, err := rdsutils.BuildAuthToken(c.endpoint(), rdsClient.Region, c.User, rdsClient.Credentials)
	if err != nil {
		return nil, err
	}

	return open(c.tokenDSN(token), c)
}

// NewWithUsernameAndPassword gets a DB connection pool using username/password
// credentials.
func NewWithUsernameAndPassword(c *Config) (*sql.DB, error) {
	// TODO: enable SSL once the cluster certificate is distributed to hosts
	return open(c.passwordDSN(), c)
}

func open(dsn string, c *Config) (*sql.DB, error) {
	db, err := sql.Open("nrpgx", dsn)
	if err != nil {
		return nil, err
	}

	if c.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(c.MaxOpenConnections)
	}
	if c.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.MaxIdleConnections)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxIdleTime(c.ConnMaxLifetime)
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
