package main

import (
	"context"
	"flag"
	"os"

	"github.com/kurta17/Environmental-Monitoring-System/air-deploy/internal/deploy"
	"github.com/kurta17/Environmental-Monitoring-System/air-deploy/internal/logger"
)

func main() {
	envFile := flag.String("env-file", ".env", "environment file with deployment values")
	flag.Parse()

	log := logger.New("info", "development").WithField("service", "air-deploy")

	cfg, err := deploy.LoadConfig(*envFile)
	if err != nil {
		log.Errorf("Failed to load deployment config: %v", err)
		os.Exit(1)
	}

	deployer := deploy.NewDeployer(cfg, deploy.NewExecRunner(), os.Stdout)
	if err := deployer.Run(context.Background()); err != nil {
		log.Errorf("Deployment failed: %v", err)
		os.Exit(1)
	}
}
