package main

import (
	"context"
	"database/sql"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/control"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/handlers"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/logger"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository/db"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/sensor"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/server"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/service"

	"github.com/spf13/viper"
)

const defaultControlTick = 250 * time.Millisecond

func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log.level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// sensor stack: simulated firebox by default, MAX31855 on hardware
	tc, airflow, err := buildThermocouple(log)
	if err != nil {
		log.Fatalw("failed to init thermocouple", "err", err)
	}
	defer closeIfCloser(tc, "thermocouple", log)
	env := buildEnvSensor(log)
	defer closeIfCloser(env, "env sensor", log)

	ctrl := control.NewController(sensor.NewExhaust(tc, nil), nil)

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, ctrl, env, airflow)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the control loop (via composed service)
	go services.Runner.Run(ctx, controlTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "boiler.db")
		dbPath = "boiler.db"
	}
	return db.InitDB(dbPath)
}

func controlTick() time.Duration {
	if d := viper.GetDuration("control.tick"); d > 0 {
		return d
	}
	return defaultControlTick
}

// buildThermocouple selects the flue probe driver. The simulated
// firebox doubles as the airflow sink so the loop closes in sim mode.
func buildThermocouple(log *logger.Logger) (sensor.Thermocouple, service.AirflowSink, error) {
	switch driver := viper.GetString("sensor.driver"); driver {
	case "", "sim":
		sim := sensor.NewSim(nil)
		log.Infow("using simulated firebox")
		return sim, sim, nil
	case "max31855":
		port := viper.GetString("sensor.spi_port")
		tc, err := sensor.NewMAX31855(port)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("using MAX31855 flue probe", "spi_port", port)
		return tc, nil, nil
	default:
		log.Fatalw("unknown sensor driver", "driver", driver)
		return nil, nil, nil
	}
}

// buildEnvSensor opens the optional BME280. Telemetry only, so a
// missing sensor is a warning, not a startup failure.
func buildEnvSensor(log *logger.Logger) service.EnvSource {
	if !viper.GetBool("sensor.env_enabled") {
		return nil
	}
	bus := viper.GetString("sensor.i2c_bus")
	env, err := sensor.NewEnv(bus, nil)
	if err != nil {
		log.Warnw("env sensor unavailable; continuing without it", "err", err, "i2c_bus", bus)
		return nil
	}
	return env
}

// closeIfCloser releases hardware bus handles on shutdown. Simulated
// drivers hold nothing and simply don't implement io.Closer.
func closeIfCloser(v any, name string, log *logger.Logger) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warnw("failed to close "+name, "err", err)
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the control loop
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
