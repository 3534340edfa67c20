// Package app wires the controller together from configuration.
package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pitwall/trackrelay/api/control"
	"github.com/pitwall/trackrelay/api/ingest"
	"github.com/pitwall/trackrelay/config"
	coremetrics "github.com/pitwall/trackrelay/core/metrics"
	"github.com/pitwall/trackrelay/core/monitor"
	"github.com/pitwall/trackrelay/core/processor"
	"github.com/pitwall/trackrelay/core/relay"
	"github.com/pitwall/trackrelay/core/signal"
	"github.com/pitwall/trackrelay/infra/gpio"
	"github.com/pitwall/trackrelay/infra/logger"
	"github.com/pitwall/trackrelay/infra/metrics"
	"github.com/pitwall/trackrelay/infra/mqtt"
	"github.com/pitwall/trackrelay/internal/eventbus"
	"github.com/pitwall/trackrelay/store/confstore"
)

// Service owns the controller's components and their lifecycle.
type Service struct {
	cfg       *config.Config
	state     *signal.State
	actuator  *relay.Actuator
	monitor   *monitor.Monitor
	processor *processor.Processor
	bus       *eventbus.Bus
	sink      coremetrics.ActuationSink
	driver    io.Closer
	mqttIn    *mqtt.Ingestor
	saver     control.ConfigSaver
	log       logger.Logger
}

// New creates a Service from the configuration. A missing GPIO chip degrades
// to the logging nop driver so the controller is fully operable in test mode.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store := confstore.New(cfg.Pulse.Path, logger.New("confstore"))
	pulseCfg := store.Load()

	outputs := make([]string, 0, len(cfg.Relay.Outputs))
	for name := range cfg.Relay.Outputs {
		outputs = append(outputs, name)
	}
	state := signal.NewState(outputs, pulseCfg)

	var driver relay.Driver
	var driverCloser io.Closer
	if lines, err := gpio.NewLineDriver(cfg.Relay.Chip, cfg.Relay.Outputs, logger.New("gpio")); err != nil {
		logg.Warnf("GPIO unavailable (%v) - running in test mode", err)
		driver = gpio.NopDriver{Log: logger.New("gpio")}
	} else {
		driver = lines
		driverCloser = lines
	}

	bus := eventbus.New()
	actuator := relay.New(state, driver, bus, logger.New("relay"))
	mon := monitor.New(state, actuator, bus,
		time.Duration(cfg.Monitor.PollIntervalMS)*time.Millisecond, logger.New("monitor"))
	proc := processor.New(state, actuator, bus, logger.New("processor"))

	var sinks []coremetrics.ActuationSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.ActuationSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		cfg:       cfg,
		state:     state,
		actuator:  actuator,
		monitor:   mon,
		processor: proc,
		bus:       bus,
		sink:      sink,
		driver:    driverCloser,
		saver:     store,
		log:       logg,
	}
	return svc, nil
}

// Run starts all activities and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.sink != nil {
		metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	go s.monitor.Run(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, logger.New("prom")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cfg.MQTT.Enabled {
		in, err := mqtt.NewIngestor(s.cfg.MQTT, s.processor, logger.New("mqtt"))
		if err != nil {
			// MQTT is an optional transport; the HTTP interface keeps working.
			s.log.Errorf("mqtt ingest disabled: %v", err)
		} else {
			s.mqttIn = in
		}
	}

	ingestSrv := &http.Server{
		Addr:    s.cfg.Server.IngestAddr,
		Handler: ingest.NewHandler(s.processor, logger.New("ingest")),
	}
	controlSrv := &http.Server{
		Addr:    s.cfg.Server.ControlAddr,
		Handler: control.New(s.state, s.actuator, s.saver, logger.New("control")),
	}
	go s.serve(ctx, "ingest", ingestSrv)
	go s.serve(ctx, "control", controlSrv)

	cfg := s.state.Config()
	s.log.Infow("trackrelay started", map[string]any{
		"ingest_addr":   s.cfg.Server.IngestAddr,
		"control_addr":  s.cfg.Server.ControlAddr,
		"outputs":       s.cfg.Relay.Outputs,
		"pulse_s":       cfg.Duration.Seconds(),
		"start_delay_s": cfg.StartDelay.Seconds(),
	})

	<-ctx.Done()
	return nil
}

func (s *Service) serve(ctx context.Context, name string, srv *http.Server) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("%s server shutdown: %v", name, err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("%s server: %v", name, err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqttIn != nil {
		s.mqttIn.Close()
	}
	s.bus.Close()
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}
