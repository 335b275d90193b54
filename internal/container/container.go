package container

import (
	"fmt"
	"net/http"

	"go-page-translator/internal/config"
	"go-page-translator/internal/factory"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/messaging"
	"go-page-translator/internal/observer"
	"go-page-translator/internal/pipeline"
	"go-page-translator/internal/processor"
	"go-page-translator/internal/relay"
	"go-page-translator/internal/scanner"
	"go-page-translator/internal/storage"
	"go-page-translator/internal/transport"
	"go-page-translator/internal/updater"
)

// Container holds the processing server's dependencies
type Container struct {
	config     *config.Config
	engine     processor.OCREngine
	translator processor.Translator
	processor  *processor.Processor
	handler    http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	components := factory.NewComponentFactory(cfg)

	// A configured backend URL selects the HTTP translator; without one
	// the server still answers, marking every image unchanged.
	translatorType := factory.NoopTranslator
	if cfg.TranslatorURL != "" {
		translatorType = factory.HTTPTranslator
	}
	translator, err := components.TranslatorFactory.CreateTranslator(translatorType)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	engine := processor.NewTesseractEngine()
	proc := processor.New(engine, translator, cfg.OCRConfidenceFloor)
	handler := transport.NewHandler(proc, cfg)

	return &Container{
		config:     cfg,
		engine:     engine,
		translator: translator,
		processor:  proc,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// PageContainer holds the page-side dependencies: the scanner, the relay
// to the processing endpoint, and the pipeline that drives one cycle.
type PageContainer struct {
	config     *config.Config
	fetcher    storage.ImageFetcher
	dispatcher *messaging.Dispatcher
	relay      *relay.Relay
	pipeline   *pipeline.Pipeline
	metrics    observer.Observer
}

// NewPageContainer wires the page-side dependency graph
func NewPageContainer() (*PageContainer, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	components := factory.NewComponentFactory(cfg)

	httpFetcher, err := components.StorageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create http storage: %w", err)
	}

	// Blob-hosted sources route through Azure only when credentials exist.
	var blobFetcher storage.ImageFetcher
	if cfg.AzureAccountName != "" && cfg.AzureAccountKey != "" {
		blobFetcher, err = components.StorageFactory.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
	}
	fetcher := storage.NewSourceFetcher(httpFetcher, blobFetcher)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metrics := observer.NewMetricsObserver()
	events.Subscribe(metrics)

	dispatcher := messaging.NewDispatcher(4)
	rel := relay.New(cfg.ProcessEndpoint, cfg.RelayTimeout, dispatcher)
	sc := scanner.New(fetcher, cfg.DimensionThreshold, cfg.ImageFetchTimeout)
	pipe := pipeline.New(sc, updater.New(), dispatcher, events, cfg.RelayTimeout)

	return &PageContainer{
		config:     cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		relay:      rel,
		pipeline:   pipe,
		metrics:    metrics,
	}, nil
}

// Metrics returns the aggregated cycle counters
func (c *PageContainer) Metrics() map[string]interface{} {
	if m, ok := c.metrics.(*observer.MetricsObserver); ok {
		return m.GetMetrics()
	}
	return nil
}

// Pipeline returns the cycle pipeline
func (c *PageContainer) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Relay returns the background relay
func (c *PageContainer) Relay() *relay.Relay {
	return c.relay
}

// Fetcher returns the routing image fetcher
func (c *PageContainer) Fetcher() storage.ImageFetcher {
	return c.fetcher
}

// Dispatcher returns the message dispatcher
func (c *PageContainer) Dispatcher() *messaging.Dispatcher {
	return c.dispatcher
}

// Config returns the configuration
func (c *PageContainer) Config() *config.Config {
	return c.config
}
