package gdocai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config holds the Document AI processor settings
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"` // Falls back to GOOGLE_APPLICATION_CREDENTIALS
	MimeType        string `yaml:"mime_type"`        // Used when the caller does not pass one
	StyleInfo       bool   `yaml:"style_info"`       // Ask the OCR processor for token style info

	MaxRetries      uint64        `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time"`

	Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultConfig returns the default Document AI settings
func DefaultConfig() Config {
	return Config{
		Location:        "us",
		MimeType:        "application/pdf",
		StyleInfo:       true,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxElapsedTime:  30 * time.Second,
	}
}

// Validate checks that the processor can be addressed
func (c Config) Validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.Location == "" {
		missing = append(missing, "location")
	}
	if c.ProcessorID == "" {
		missing = append(missing, "processor_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("document AI config is missing %v", missing)
	}
	return nil
}

// ProcessorName returns the resource name of the processor
func (c Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

type processFunc func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)

// Client sends documents to one Document AI processor. It is safe for
// concurrent use.
type Client struct {
	cfg     Config
	log     logrus.FieldLogger
	process processFunc
	closer  io.Closer
}

// NewClient connects to the regional Document AI endpoint
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	dp, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	c := newClient(cfg, func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		return dp.ProcessDocument(ctx, req)
	})
	c.closer = dp
	return c, nil
}

func newClient(cfg Config, process processFunc) *Client {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{cfg: cfg, log: log, process: process}
}

// Close releases the connection
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Process sends one document and returns the raw Document AI response. An
// empty mimeType uses the configured default. Transient failures are retried
// with exponential backoff; invalid requests fail immediately.
func (c *Client) Process(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error) {
	if len(content) == 0 {
		return nil, errors.New("empty document")
	}
	if mimeType == "" {
		mimeType = c.cfg.MimeType
	}

	req := &documentaipb.ProcessRequest{
		Name: c.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}
	if c.cfg.StyleInfo {
		req.ProcessOptions = &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				PremiumFeatures: &documentaipb.OcrConfig_PremiumFeatures{
					ComputeStyleInfo: true,
				},
			},
		}
	}

	attempt := 0
	doc, err := backoff.RetryWithData(func() (*documentaipb.Document, error) {
		attempt++
		resp, err := c.process(ctx, req)
		if err != nil {
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			c.log.WithField("attempt", attempt).Warnf("Document AI request failed: %v", err)
			return nil, err
		}
		if resp.GetDocument() == nil {
			return nil, backoff.Permanent(errors.New("response has no document"))
		}
		return resp.GetDocument(), nil
	}, backoff.WithContext(c.backOff(), ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}

	c.log.WithFields(logrus.Fields{"pages": len(doc.GetPages()), "attempts": attempt}).Debug("Processed document")
	return doc, nil
}

func (c *Client) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.cfg.InitialInterval > 0 {
		b.InitialInterval = c.cfg.InitialInterval
	}
	b.MaxElapsedTime = c.cfg.MaxElapsedTime
	return backoff.WithMaxRetries(b, c.cfg.MaxRetries)
}

// retryable reports whether a failed call may succeed when repeated
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied,
		codes.Unauthenticated, codes.FailedPrecondition, codes.Unimplemented:
		return false
	}
	return true
}
