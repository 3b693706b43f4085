package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"fancontrol/internal/controller"
	"fancontrol/internal/device"
	"fancontrol/internal/engine"
	"fancontrol/internal/handlers"
	"fancontrol/internal/logger"
	"fancontrol/internal/models"
	"fancontrol/internal/monitor"
	"fancontrol/internal/repository"
	"fancontrol/internal/repository/db"
	"fancontrol/internal/server"
	"fancontrol/internal/service"
)

func main() {
	debugMode := flag.Bool("debug", false, "perform one raw read per device, log the results, and exit")
	flag.Parse()

	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	tstatURL := viper.GetString("thermostat.url")
	if tstatURL == "" {
		log.Fatalw("thermostat.url is required")
	}
	fanURLs := viper.GetStringSlice("fans.urls")
	timeout := viper.GetDuration("device.timeout")

	blowerCfg, fanCfg, err := actuatorConfigs()
	if err != nil {
		log.Fatalw("invalid actuator config", "err", err)
	}

	// One transport per physical endpoint; the blower is commanded through
	// the thermostat itself.
	tstatClient := device.NewHTTPClient(tstatURL, timeout)
	fanClients := make([]*device.HTTPClient, 0, len(fanURLs))
	for _, u := range fanURLs {
		fanClients = append(fanClients, device.NewHTTPClient(u, timeout))
	}

	// Debug path: one read per device, no journal, no loop.
	if *debugMode {
		runDebug(tstatClient, fanClients, blowerCfg, fanCfg, log)
		return
	}

	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, log)

	mon := monitor.New(tstatClient, services.Recorder, log, monitor.Options{
		TransitionBackdate: blowerCfg.HoldWindow,
	})
	fans := make([]*controller.CeilingFanController, 0, len(fanClients))
	for i, fc := range fanClients {
		name := fmt.Sprintf("fan-%d", i+1)
		fans = append(fans, controller.NewCeilingFan(name, fc, fanCfg, services.Recorder, log))
	}
	blower := controller.NewBlower(tstatClient, blowerCfg, services.Recorder, log)

	actuators := make([]controller.Actuator, 0, len(fans)+1)
	for _, f := range fans {
		actuators = append(actuators, f)
	}
	actuators = append(actuators, blower)

	loop := engine.New(mon, actuators, viper.GetDuration("poll.interval"), log,
		engine.WithAfterCycle(func(pollOK bool) {
			services.Monitoring.Publish(snapshot(mon, blower, fans, pollOK))
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)

	apiHandler := handlers.NewHandler(services, log)
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	log.Infow("fancontrol running",
		"thermostat", tstatURL,
		"fans", len(fanURLs),
		"poll_interval", viper.GetDuration("poll.interval"),
	)

	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("port", "8080")
	viper.SetDefault("db.path", "fancontrol.db")
	viper.SetDefault("poll.interval", engine.DefaultPollInterval)
	viper.SetDefault("device.timeout", device.DefaultTimeout)
	viper.SetDefault("blower.hold_window", 6*time.Minute)
	viper.SetDefault("blower.forced_mode", "on")
	viper.SetDefault("fan.on_delay", 60*time.Second)
	viper.SetDefault("fan.off_delay", 180*time.Second)
	viper.SetDefault("fan.heat_on_speed", 2)
	viper.SetDefault("fan.heat_off_speed", 1)

	return viper.ReadInConfig()
}

// actuatorConfigs builds the per-controller tuning from config.
func actuatorConfigs() (controller.BlowerConfig, controller.FanConfig, error) {
	forced, err := models.ParseBlowerMode(viper.GetString("blower.forced_mode"))
	if err != nil {
		return controller.BlowerConfig{}, controller.FanConfig{}, err
	}
	blowerCfg := controller.BlowerConfig{
		HoldWindow: viper.GetDuration("blower.hold_window"),
		ForcedMode: forced,
	}
	fanCfg := controller.FanConfig{
		OnDelay:      viper.GetDuration("fan.on_delay"),
		OffDelay:     viper.GetDuration("fan.off_delay"),
		HeatOnSpeed:  viper.GetInt("fan.heat_on_speed"),
		HeatOffSpeed: viper.GetInt("fan.heat_off_speed"),
	}
	return blowerCfg, fanCfg, nil
}

// openDB initializes the SQLite journal using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "fancontrol.db")
		dbPath = "fancontrol.db"
	}
	return db.InitDB(dbPath)
}

// runDebug performs one raw exchange per device and exits.
func runDebug(tstat *device.HTTPClient, fanClients []*device.HTTPClient, blowerCfg controller.BlowerConfig, fanCfg controller.FanConfig, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	monitor.New(tstat, nil, log, monitor.Options{TransitionBackdate: blowerCfg.HoldWindow}).Debug(ctx)
	for i, fc := range fanClients {
		controller.NewCeilingFan(fmt.Sprintf("fan-%d", i+1), fc, fanCfg, nil, log).Debug(ctx)
	}
	controller.NewBlower(tstat, blowerCfg, nil, log).Debug(ctx)
}

// runHTTPServer runs the inspection API server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful
// shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop the control loop
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}

// snapshot assembles a consistent post-cycle status for the inspection API.
func snapshot(mon *monitor.Monitor, blower *controller.BlowerController, fans []*controller.CeilingFanController, pollOK bool) models.ControlStatus {
	fanStatuses := make([]models.FanStatus, 0, len(fans))
	for _, f := range fans {
		fanStatuses = append(fanStatuses, f.Status())
	}
	return models.ControlStatus{
		Reading:                mon.Reading(),
		LastPollOK:             pollOK,
		ConsecutiveFailures:    mon.ConsecutiveFailures(),
		SecondsSinceTransition: mon.TimeSinceTransition().Seconds(),
		Blower:                 blower.Status(),
		Fans:                   fanStatuses,
		UpdatedAt:              time.Now().UTC(),
	}
}
