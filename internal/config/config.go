package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database (optional: enables persistence, label cache and cross-claim matching)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Classifier
	ClassifierProvider       string  `envconfig:"CLASSIFIER_PROVIDER" default:"mock"`
	AWSRegion                string  `envconfig:"AWS_REGION" default:"us-east-2"`
	RekognitionMaxLabels     int32   `envconfig:"REKOGNITION_MAX_LABELS" default:"50"`
	RekognitionMinConfidence float32 `envconfig:"REKOGNITION_MIN_CONFIDENCE" default:"30"`
	S3Enabled                bool    `envconfig:"S3_ENABLED" default:"true"`
	ClassifierURL            string  `envconfig:"CLASSIFIER_URL"`

	// Pipeline
	BlurThreshold         float64           `envconfig:"BLUR_THRESHOLD" default:"100"`
	DarkThreshold         float64           `envconfig:"DARK_THRESHOLD" default:"40"`
	HashDistanceThreshold int               `envconfig:"HASH_DISTANCE_THRESHOLD" default:"6"`
	LabelAreaMap          map[string]string `envconfig:"LABEL_AREA_MAP" default:"Roof Damage:roof,Shingle Damage:roof,Wind Damage:siding,Siding Damage:siding,Garage Damage:garage,Door Damage:garage"`
	SeverityBreakpoints   []float64         `envconfig:"SEVERITY_BREAKPOINTS" default:"90,75,60,45"`
	FetchTimeout          time.Duration     `envconfig:"FETCH_TIMEOUT" default:"10s"`
	ClassifyTimeout       time.Duration     `envconfig:"CLASSIFY_TIMEOUT" default:"15s"`
	MaxImageBytes         int64             `envconfig:"MAX_IMAGE_BYTES" default:"15728640"`
	MaxImagePixels        int64             `envconfig:"MAX_IMAGE_PIXELS" default:"40000000"`
	Workers               int               `envconfig:"WORKERS" default:"4"`
	MaxImagesPerClaim     int               `envconfig:"MAX_IMAGES_PER_CLAIM" default:"200"`
	LabelCacheTTL         time.Duration     `envconfig:"LABEL_CACHE_TTL" default:"24h"`

	// Result sinks
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	ResultFile    string `envconfig:"RESULT_FILE"`

	// Rate limiting (requests per minute per client IP)
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX" default:"60"`
}

// Pipeline holds the validated settings consumed by the triage pipeline
type Pipeline struct {
	BlurThreshold         float64
	DarkThreshold         float64
	HashDistanceThreshold int
	LabelAreas            domain.LabelAreaMap
	Breakpoints           domain.Breakpoints
	FetchTimeout          time.Duration
	ClassifyTimeout       time.Duration
	MaxImageBytes         int64
	MaxImagePixels        int64
	Workers               int
	MaxImagesPerClaim     int
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	_, err := c.Pipeline()
	if err != nil {
		return err
	}
	if c.ClassifierProvider == "remote" && c.ClassifierURL == "" {
		return errors.New("CLASSIFIER_URL is required when CLASSIFIER_PROVIDER is remote")
	}
	if c.WebhookURL != "" && c.WebhookSecret == "" {
		return errors.New("WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	return nil
}

// Pipeline converts the raw settings into domain types
func (c *Config) Pipeline() (Pipeline, error) {
	breakpoints, err := domain.NewBreakpoints(c.SeverityBreakpoints)
	if err != nil {
		return Pipeline{}, fmt.Errorf("SEVERITY_BREAKPOINTS: %w", err)
	}

	areas := make(domain.LabelAreaMap, len(c.LabelAreaMap))
	for label, name := range c.LabelAreaMap {
		area, err := domain.ParseDamageArea(name)
		if err != nil {
			return Pipeline{}, fmt.Errorf("LABEL_AREA_MAP: label %q: %w", label, err)
		}
		areas[label] = area
	}
	if len(areas) == 0 {
		return Pipeline{}, errors.New("LABEL_AREA_MAP must not be empty")
	}

	switch {
	case c.BlurThreshold < 0:
		return Pipeline{}, fmt.Errorf("BLUR_THRESHOLD must not be negative, got %v", c.BlurThreshold)
	case c.DarkThreshold < 0 || c.DarkThreshold > 255:
		return Pipeline{}, fmt.Errorf("DARK_THRESHOLD must be within [0,255], got %v", c.DarkThreshold)
	case c.HashDistanceThreshold < 0 || c.HashDistanceThreshold > 64:
		return Pipeline{}, fmt.Errorf("HASH_DISTANCE_THRESHOLD must be within [0,64], got %d", c.HashDistanceThreshold)
	case c.Workers <= 0:
		return Pipeline{}, fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	case c.MaxImageBytes <= 0 || c.MaxImagePixels <= 0:
		return Pipeline{}, errors.New("MAX_IMAGE_BYTES and MAX_IMAGE_PIXELS must be positive")
	case c.MaxImagesPerClaim <= 0:
		return Pipeline{}, fmt.Errorf("MAX_IMAGES_PER_CLAIM must be positive, got %d", c.MaxImagesPerClaim)
	case c.FetchTimeout <= 0 || c.ClassifyTimeout <= 0:
		return Pipeline{}, errors.New("FETCH_TIMEOUT and CLASSIFY_TIMEOUT must be positive")
	}

	return Pipeline{
		BlurThreshold:         c.BlurThreshold,
		DarkThreshold:         c.DarkThreshold,
		HashDistanceThreshold: c.HashDistanceThreshold,
		LabelAreas:            areas,
		Breakpoints:           breakpoints,
		FetchTimeout:          c.FetchTimeout,
		ClassifyTimeout:       c.ClassifyTimeout,
		MaxImageBytes:         c.MaxImageBytes,
		MaxImagePixels:        c.MaxImagePixels,
		Workers:               c.Workers,
		MaxImagesPerClaim:     c.MaxImagesPerClaim,
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PersistenceEnabled reports whether a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
