package deploy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/kurta17/Environmental-Monitoring-System/air-deploy/internal/logger"
)

const (
	defaultServiceName = "air-quality-processor"
	defaultRegion      = "us-central1"
	defaultBucketName  = "fetch_aqicn"
)

// Config holds the deployment values read from the local environment file.
type Config struct {
	ProjectID   string
	ServiceName string
	Region      string
	BucketName  string
	Token       string
}

// LoadConfig reads the environment file and applies defaults. A missing
// file or a missing required value fails here, before any cloud command
// has run.
func LoadConfig(envFile string) (*Config, error) {
	env, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file %s: %w", envFile, err)
	}

	cfg := &Config{
		ProjectID:   env["PROJECT_ID"],
		ServiceName: env["SERVICE_NAME"],
		Region:      env["REGION"],
		BucketName:  env["BUCKET_NAME"],
		Token:       env["TOKEN"],
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.BucketName == "" {
		cfg.BucketName = defaultBucketName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deployment config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID must be set in the environment file")
	}
	if c.Token == "" {
		return fmt.Errorf("TOKEN must be set in the environment file")
	}
	return nil
}

// ImageTag is the registry path the built container image is pushed to.
func (c *Config) ImageTag() string {
	return fmt.Sprintf("gcr.io/%s/%s", c.ProjectID, c.ServiceName)
}

// Deployer drives the cloud CLI: build and publish the container image,
// roll out the serving endpoint, and report its URL.
type Deployer struct {
	config *Config
	runner CommandRunner
	out    io.Writer
	logger logger.Logger
}

func NewDeployer(cfg *Config, runner CommandRunner, out io.Writer) *Deployer {
	if out == nil {
		out = os.Stdout
	}
	return &Deployer{
		config: cfg,
		runner: runner,
		out:    out,
		logger: logger.New("info", "development").WithField("component", "deployer"),
	}
}

// Run executes the full deployment. The endpoint URL is printed to the
// output writer as the final line.
func (d *Deployer) Run(ctx context.Context) error {
	if err := d.buildImage(ctx); err != nil {
		return err
	}

	if err := d.deployService(ctx); err != nil {
		return err
	}

	url, err := d.serviceURL(ctx)
	if err != nil {
		return err
	}

	d.logger.Infof("Service %s deployed successfully", d.config.ServiceName)
	fmt.Fprintln(d.out, url)
	return nil
}

func (d *Deployer) buildImage(ctx context.Context) error {
	d.logger.Infof("Building container image %s...", d.config.ImageTag())

	err := d.runner.Run(ctx, "gcloud",
		"builds", "submit",
		"--project", d.config.ProjectID,
		"--tag", d.config.ImageTag(),
		".",
	)
	if err != nil {
		return fmt.Errorf("failed to build container image: %w", err)
	}

	return nil
}

func (d *Deployer) deployService(ctx context.Context) error {
	d.logger.Infof("Deploying service %s to region %s...", d.config.ServiceName, d.config.Region)

	err := d.runner.Run(ctx, "gcloud",
		"run", "deploy", d.config.ServiceName,
		"--project", d.config.ProjectID,
		"--image", d.config.ImageTag(),
		"--region", d.config.Region,
		"--platform", "managed",
		"--allow-unauthenticated",
		"--set-env-vars", fmt.Sprintf("TOKEN=%s,BUCKET_NAME=%s", d.config.Token, d.config.BucketName),
	)
	if err != nil {
		return fmt.Errorf("failed to deploy service: %w", err)
	}

	return nil
}

func (d *Deployer) serviceURL(ctx context.Context) (string, error) {
	d.logger.Infof("Resolving endpoint URL for service %s...", d.config.ServiceName)

	url, err := d.runner.Output(ctx, "gcloud",
		"run", "services", "describe", d.config.ServiceName,
		"--project", d.config.ProjectID,
		"--region", d.config.Region,
		"--platform", "managed",
		"--format", "value(status.url)",
	)
	if err != nil {
		return "", fmt.Errorf("failed to resolve service URL: %w", err)
	}
	if url == "" {
		return "", fmt.Errorf("service %s reported no endpoint URL", d.config.ServiceName)
	}

	return url, nil
}
