package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"go-page-translator/internal/container"
	"go-page-translator/pkg/validation"
)

func main() {
	pageURL := flag.String("url", "", "page to translate (required)")
	output := flag.String("o", "", "write the translated page here instead of stdout")
	flag.Parse()

	if *pageURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stderr)

	validator := validation.NewURLValidator()
	if err := validator.ValidatePageURL(*pageURL); err != nil {
		log.Fatalf("Invalid page URL: %v", err)
	}

	c, err := container.NewPageContainer()
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := fetchDocument(ctx, *pageURL)
	if err != nil {
		log.Fatalf("Failed to load page: %v", err)
	}

	// The relay consumes background messages on its own goroutine for the
	// whole run, mirroring how the pipeline and relay sit on opposite
	// sides of the dispatcher.
	go c.Relay().Run(ctx)
	defer c.Dispatcher().Close()

	result, err := c.Pipeline().Run(ctx, doc)
	if err != nil {
		log.Fatalf("Translation cycle failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"cycle_id": result.CycleID,
		"scanned":  result.Scanned,
		"replaced": result.Replaced,
	}).Info("Translation cycle settled")

	html, err := doc.Html()
	if err != nil {
		log.Fatalf("Failed to serialize page: %v", err)
	}

	if *output == "" {
		fmt.Println(html)
		return
	}
	if err := os.WriteFile(*output, []byte(html), 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	logrus.WithField("path", *output).Info("Translated page written")
}

func fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
