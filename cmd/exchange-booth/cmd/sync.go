package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/exchange-booth/pkg/app"
	"github.com/code-payments/exchange-booth/pkg/code/booth"
	"github.com/code-payments/exchange-booth/pkg/code/common"
	"github.com/code-payments/exchange-booth/pkg/code/data"
	pg "github.com/code-payments/exchange-booth/pkg/database/postgres"
	"github.com/code-payments/exchange-booth/pkg/metrics"
)

const (
	defaultSyncInterval = time.Minute
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index vaults into the vault store",
	Long: `Periodically fetch the vaults of the watched mints, and of every vault already
indexed, and save them to the vault store.

Vaults are synced every --interval, or on a cron --schedule when one is set.
The store is postgres when app.database.host is configured and in memory
otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, err := cmd.Flags().GetBool("once")
		if err != nil {
			return err
		}

		if !once {
			return app.Run(&syncApp{})
		}

		config, err := app.LoadConfig()
		if err != nil {
			return err
		}

		service, err := newSyncService(cmd.Context(), config.AppConfig)
		if err != nil {
			return err
		}

		synced, err := service.SyncAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Synced: %d\n", synced)
		return nil
	},
}

type databaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
	UseAwsIam          bool   `mapstructure:"use_aws_iam"`
}

type syncConfig struct {
	Interval time.Duration  `mapstructure:"sync_interval"`
	Schedule string         `mapstructure:"sync_schedule"`
	Mints    []string       `mapstructure:"mints"`
	Database databaseConfig `mapstructure:"database"`
}

func decodeSyncConfig(config app.Config) (*syncConfig, error) {
	decoded := &syncConfig{
		Interval: defaultSyncInterval,
		Database: databaseConfig{
			Port: 5432,
		},
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           decoded,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(map[string]interface{}(config)); err != nil {
		return nil, errors.Wrap(err, "invalid sync config")
	}

	if decoded.Interval <= 0 {
		return nil, errors.New("sync interval must be positive")
	}
	return decoded, nil
}

func (c *syncConfig) pgConfig() *pg.Config {
	if len(c.Database.Host) == 0 {
		return nil
	}

	return &pg.Config{
		User:               c.Database.User,
		Host:               c.Database.Host,
		Password:           c.Database.Password,
		Port:               c.Database.Port,
		DbName:             c.Database.Name,
		MaxOpenConnections: c.Database.MaxOpenConnections,
		MaxIdleConnections: c.Database.MaxIdleConnections,
		UseAwsIam:          c.Database.UseAwsIam,
	}
}

func (c *syncConfig) mintAccounts() ([]*common.Account, error) {
	var mints []*common.Account
	for _, value := range c.Mints {
		if len(value) == 0 {
			continue
		}

		mint, err := common.NewAccountFromPublicKeyString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mint %s", value)
		}
		mints = append(mints, mint)
	}
	return mints, nil
}

func newSyncService(ctx context.Context, config app.Config) (*booth.SyncService, error) {
	decoded, err := decodeSyncConfig(config)
	if err != nil {
		return nil, err
	}

	return newSyncServiceFromConfig(ctx, decoded)
}

func newSyncServiceFromConfig(ctx context.Context, config *syncConfig) (*booth.SyncService, error) {
	mints, err := config.mintAccounts()
	if err != nil {
		return nil, err
	}

	store, err := data.NewVaultStore(ctx, config.pgConfig())
	if err != nil {
		return nil, err
	}

	client, err := newBoothClient(store)
	if err != nil {
		return nil, err
	}

	return booth.NewSyncService(client, mints...), nil
}

// syncApp runs the vault sync service for the lifetime of the process.
type syncApp struct {
	log *logrus.Entry

	cancel func()
	cron   *cron.Cron
	wg     sync.WaitGroup

	stopOnce   sync.Once
	shutdownCh chan struct{}
}

var _ app.App = (*syncApp)(nil)

func (a *syncApp) Init(config app.Config, metricsProvider *newrelic.Application) error {
	a.log = logrus.StandardLogger().WithField("type", "cmd/sync")
	a.shutdownCh = make(chan struct{})

	decoded, err := decodeSyncConfig(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(metrics.NewContext(context.Background(), metricsProvider))
	a.cancel = cancel

	service, err := newSyncServiceFromConfig(ctx, decoded)
	if err != nil {
		cancel()
		return err
	}

	if len(decoded.Schedule) > 0 {
		a.cron = cron.New(cron.WithLocation(time.Local))
		_, err := a.cron.AddFunc(decoded.Schedule, func() {
			nr, _ := ctx.Value(metrics.NewRelicContextKey).(*newrelic.Application)
			m := nr.StartTransaction("cron__booth_sync_service__sync_all")
			defer m.End()

			synced, err := service.SyncAll(newrelic.NewContext(ctx, m))
			if err != nil {
				m.NoticeError(err)
				a.log.WithError(err).Warn("failure syncing vaults")
				return
			}
			a.log.WithField("synced", synced).Debug("vaults synced")
		})
		if err != nil {
			cancel()
			return errors.Wrap(err, "invalid sync schedule")
		}

		a.cron.Start()
		a.log.WithField("schedule", decoded.Schedule).Info("vault sync scheduled")
		return nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		err := service.Start(ctx, decoded.Interval)
		if err != nil && err != context.Canceled {
			a.log.WithError(err).Warn("vault sync service stopped")
		}
	}()

	a.log.WithField("interval", decoded.Interval).Info("vault sync started")
	return nil
}

func (a *syncApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

func (a *syncApp) Stop() {
	a.stopOnce.Do(func() {
		if a.cron != nil {
			<-a.cron.Stop().Done()
		}
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()
		close(a.shutdownCh)
	})
}

func init() {
	syncCmd.Flags().Bool("once", false, "run a single sync pass and exit")
	syncCmd.Flags().Duration("interval", defaultSyncInterval, "delay between sync passes")
	syncCmd.Flags().String("schedule", "", "cron schedule for sync passes, overrides --interval")
	syncCmd.Flags().StringSlice("mint", nil, "mints whose vaults are synced before they are indexed")

	for key, flag := range map[string]string{
		"app.sync_interval": "interval",
		"app.sync_schedule": "schedule",
		"app.mints":         "mint",
	} {
		if err := viper.BindPFlag(key, syncCmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag: %v\n", err)
		}
	}

	rootCmd.AddCommand(syncCmd)
}
