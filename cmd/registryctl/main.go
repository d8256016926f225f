package main

import (
	"os"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/registryctl"
)

func main() {
	logger := bootstrap.NewLogger()
	bootstrap.LoadEnv(logger)

	if err := registryctl.NewRootCommand(logger).Execute(); err != nil {
		logger.WithError(err).Error("registryctl failed")
		os.Exit(1)
	}
}
