package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const (
	driverName = "nrpgx"

	connMaxLifetime = time.Hour
)

type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int

	// UseAwsIam authenticates with an RDS IAM token in place of Password.
	// Only provisioned Aurora clusters support it.
	UseAwsIam bool
}

func (c *Config) endpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Open returns a pinged connection pool for the configured database.
func Open(ctx context.Context, c *Config) (*sql.DB, error) {
	dsn, err := c.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "error connecting to database at %s", c.endpoint())
	}

	if c.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(c.MaxOpenConnections)
	}
	if c.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(connMaxLifetime)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

func (c *Config) dsn() (string, error) {
	if !c.UseAwsIam {
		// TODO: enable sslmode=verify-full once the RDS CA bundle is shipped with the binary
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", c.User, c.Password, c.endpoint(), c.DbName), nil
	}

	token, err := iamAuthToken(c.endpoint(), c.User)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.User, token, c.DbName), nil
}

// Reference: https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func iamAuthToken(endpoint, user string) (string, error) {
	awsConfig, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return "", errors.Wrap(err, "error loading aws config")
	}

	rdsClient := rds.New(awsConfig)
	token, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, user, rdsClient.Credentials)
	if err != nil {
		return "", errors.Wrap(err, "error building iam auth token")
	}
	return token, nil
}
