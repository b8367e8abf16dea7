package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kilianp07/powerplan/api/productionplan"
	"github.com/kilianp07/powerplan/config"
	"github.com/kilianp07/powerplan/core/dispatch"
	coremetrics "github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
	"github.com/kilianp07/powerplan/infra/logger"
	"github.com/kilianp07/powerplan/infra/metrics"
	"github.com/kilianp07/powerplan/infra/mqtt"
	"github.com/kilianp07/powerplan/internal/eventbus"
)

const shutdownTimeout = 5 * time.Second

type planPublisher interface {
	PublishPlan(rec model.PlanRecord) error
	Disconnect()
}

// Service wires the planner to its HTTP API and notification sinks.
type Service struct {
	Manager *dispatch.PlanManager

	server    *http.Server
	sink      coremetrics.MetricsSink
	publisher planPublisher
	plans     <-chan model.PlanRecord
	log       logger.Logger

	promEnabled bool
	promAddr    string

	forwarders sync.WaitGroup
	closeOnce  sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	level := cfg.Logging.Level
	if cfg.Server.Debug {
		level = "debug"
	}
	if err := logger.Setup(level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	var pub planPublisher
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}
	svc, err := newService(cfg, pub)
	if err != nil && pub != nil {
		pub.Disconnect()
	}
	return svc, err
}

func newService(cfg *config.Config, pub planPublisher) (*Service, error) {
	logg := logger.New("service")
	d, err := dispatch.NewDispatcher(cfg.Dispatch.Strategy)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	sink, err := metrics.NewSink(cfg.Metrics, nil)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	bus := eventbus.New[model.PlanRecord](16)
	var plans <-chan model.PlanRecord
	if pub != nil {
		plans = bus.Subscribe()
	}
	manager, err := dispatch.NewPlanManager(d, sink, bus, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("plan manager: %w", err)
	}

	handler := productionplan.NewHandler(manager, productionplan.Options{
		Debug:     cfg.Server.Debug,
		AccessLog: logger.NewWithWriter("access", os.Stdout).Writer(),
		Logger:    logger.New("api"),
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
		WriteTimeout:      cfg.Server.WriteTimeout(),
	}
	logg.Infof("strategy %s selected", manager.Strategy())
	return &Service{
		Manager:     manager,
		server:      server,
		sink:        sink,
		publisher:   pub,
		plans:       plans,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}, nil
}

// Run listens on the configured address and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers planning requests on ln until the context is cancelled,
// then shuts the HTTP server down gracefully.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.plans != nil {
		s.forwarders.Add(1)
		go s.forwardPlans()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", ln.Addr())
		errCh <- s.server.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Service) forwardPlans() {
	defer s.forwarders.Done()
	for rec := range s.plans {
		if err := s.publisher.PublishPlan(rec); err != nil {
			s.log.Errorf("publish plan %s: %v", rec.ID, err)
		}
	}
}

// Close releases the bus, waits for pending notifications and closes the
// MQTT and InfluxDB connections.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.Manager.Close()
		s.forwarders.Wait()
		if s.publisher != nil {
			s.publisher.Disconnect()
		}
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
	})
	return err
}
