package main

import (
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/bootstrap"
)

func main() {
	bootstrap.Bootstrap()
}
