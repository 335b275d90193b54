package factory

import (
	"fmt"

	"go-page-translator/internal/config"
	"go-page-translator/internal/processor"
	"go-page-translator/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// TranslatorType represents different translation backends
type TranslatorType string

const (
	// HTTPTranslator forwards text to a LibreTranslate-compatible service
	HTTPTranslator TranslatorType = "http"
	// NoopTranslator returns text unchanged; used when no backend is configured
	NoopTranslator TranslatorType = "noop"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// TranslatorFactory creates translation backends
type TranslatorFactory interface {
	CreateTranslator(translatorType TranslatorType) (processor.Translator, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		if f.cfg.AzureAccountName == "" || f.cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
		return storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// translatorFactory implements TranslatorFactory
type translatorFactory struct {
	cfg *config.Config
}

// NewTranslatorFactory creates a new translator factory
func NewTranslatorFactory(cfg *config.Config) TranslatorFactory {
	return &translatorFactory{cfg: cfg}
}

// CreateTranslator creates a translation backend based on the specified type
func (f *translatorFactory) CreateTranslator(translatorType TranslatorType) (processor.Translator, error) {
	switch translatorType {
	case HTTPTranslator:
		if f.cfg.TranslatorURL == "" {
			return nil, fmt.Errorf("http translator requires TRANSLATOR_URL")
		}
		return processor.NewHTTPTranslator(f.cfg.TranslatorURL, f.cfg.TargetLanguage), nil
	case NoopTranslator:
		return processor.NewNoopTranslator(), nil
	default:
		return nil, fmt.Errorf("unsupported translator type: %s", translatorType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory    StorageFactory
	TranslatorFactory TranslatorFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:    NewStorageFactory(cfg),
		TranslatorFactory: NewTranslatorFactory(cfg),
	}
}
