package app

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/exchange-booth/pkg/metrics"
	"github.com/code-payments/exchange-booth/pkg/osutil"
)

const (
	maxBallastCapacity = 0.5

	debugServerRetryDelay = 5 * time.Second
)

// App is a long lived application whose lifecycle is tied to the process.
type App interface {
	// Init starts the application. Background work must be running before
	// Init returns. metricsProvider is nil when New Relic is not configured.
	Init(config Config, metricsProvider *newrelic.Application) error

	// ShutdownChan is closed when the application stops on its own.
	ShutdownChan() <-chan struct{}

	// Stop releases the application's resources. It must be idempotent.
	Stop()
}

// LoadConfig reads the BaseConfig from viper on top of the defaults.
func LoadConfig() (BaseConfig, error) {
	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return config, errors.New("must specify an application name")
	}
	return config, nil
}

// Run initializes app, then blocks until a termination signal arrives, the
// restart cron fires, or the app shuts down on its own. The app is stopped
// before Run returns.
func Run(app App) error {
	log := logrus.StandardLogger().WithField("type", "app")

	config, err := LoadConfig()
	if err != nil {
		return err
	}

	metricsProvider, err := NewMetricsProvider(config)
	if err != nil {
		return err
	}
	ConfigureLogger(config, metricsProvider)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer signal.Stop(signals)

	startDebugServer(config, log)
	ballast := allocateBallast(config)

	restart, stopCron, err := scheduleRestart(config)
	if err != nil {
		return err
	}
	defer stopCron()

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		return errors.Wrap(err, "failed to initialize application")
	}

	select {
	case sig := <-signals:
		log.WithField("signal", sig.String()).Info("shutting down")
	case <-restart:
		log.Info("scheduled restart, shutting down")
	case <-app.ShutdownChan():
		log.Info("app shutdown")
	}

	stopped := make(chan struct{})
	go func() {
		app.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}

	if len(ballast) > 0 {
		ballast[0] = 1
	}
	if metricsProvider != nil {
		metricsProvider.Shutdown(config.ShutdownGracePeriod)
	}
	return nil
}

// startDebugServer serves expvar and pprof on the debug address when
// either is enabled.
func startDebugServer(config BaseConfig, log *logrus.Entry) {
	// Both packages register on the default mux, which must stay private.
	http.DefaultServeMux = http.NewServeMux()

	if !config.EnableExpvar && !config.EnablePprof {
		return
	}

	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	go func() {
		for {
			err := http.ListenAndServe(config.DebugListenAddress, mux)
			log.WithError(err).Warnf("debug server stopped, restarting in %v", debugServerRetryDelay)
			time.Sleep(debugServerRetryDelay)
		}
	}()
}

// allocateBallast reserves a share of total memory to pace the garbage
// collector. It returns nil when disabled.
func allocateBallast(config BaseConfig) []byte {
	if !config.EnableBallast {
		return nil
	}

	capacity := config.BallastCapacity
	if capacity > maxBallastCapacity {
		capacity = maxBallastCapacity
	}
	return make([]byte, uint64(capacity*float32(osutil.GetTotalMemory())))
}

// scheduleRestart returns a channel closed the first time the restart
// schedule fires. The channel is nil when the restart cron is disabled.
func scheduleRestart(config BaseConfig) (<-chan struct{}, func(), error) {
	if !config.EnableRestartCron {
		return nil, func() {}, nil
	}

	restart := make(chan struct{})
	var once sync.Once

	job := cron.New(cron.WithLocation(time.Local))
	_, err := job.AddFunc(config.RestartCronSchedule, func() {
		once.Do(func() { close(restart) })
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize restart cron")
	}

	job.Start()
	return restart, func() { job.Stop() }, nil
}

// NewMetricsProvider connects to New Relic when a license key is
// configured, and returns nil otherwise.
func NewMetricsProvider(config BaseConfig) (*newrelic.Application, error) {
	if len(config.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(config.AppName),
		newrelic.ConfigLicense(config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to new relic")
	}
	return nr, nil
}

// ConfigureLogger sets the standard logger's output, formatter and level.
// Entries are forwarded to New Relic when metricsProvider is set.
func ConfigureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if metricsProvider != nil {
		formatter = metrics.NewCustomNewRelicLogFormatter(metricsProvider, formatter)
	}
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
		return
	}
	logrus.SetLevel(level)
}
