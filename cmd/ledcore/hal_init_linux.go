//go:build linux
// +build linux

package main

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/edgeflow/ledcore/internal/hal"
	"github.com/edgeflow/ledcore/internal/logger"
)

func initHAL() {
	log := logger.Get()
	if runtime.GOARCH == "arm64" || runtime.GOARCH == "arm" {
		rpiHAL, err := hal.NewRaspberryPiHAL()
		if err != nil {
			log.Warn("failed to initialize Raspberry Pi HAL, using mock", zap.Error(err))
			hal.SetGlobalHAL(hal.NewMockHAL())
			return
		}
		log.Info("Raspberry Pi HAL initialized",
			zap.String("board", rpiHAL.Info().Name),
			zap.String("gpio_chip", rpiHAL.Info().GPIOChip),
			zap.Int("max_concurrent_strips", rpiHAL.Info().MaxConcurrentStrips),
			zap.Ints("recommended_data_pins", hal.RecommendedDataPins()))
		hal.SetGlobalHAL(rpiHAL)
	} else {
		log.Info("non-ARM platform detected, using mock HAL")
		mockHAL := hal.NewMockHAL()
		if pins := hal.RecommendedDataPins(); len(pins) > 0 {
			mockHAL.AssignRole(pins[0], hal.RoleDataLine)
		}
		hal.SetGlobalHAL(mockHAL)
	}
}
