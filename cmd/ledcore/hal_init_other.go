//go:build !linux
// +build !linux

package main

import (
	"github.com/edgeflow/ledcore/internal/hal"
	"github.com/edgeflow/ledcore/internal/logger"
)

func initHAL() {
	logger.Get().Info("non-Linux platform detected, using mock HAL")
	mockHAL := hal.NewMockHAL()
	if pins := hal.RecommendedDataPins(); len(pins) > 0 {
		mockHAL.AssignRole(pins[0], hal.RoleDataLine)
	}
	hal.SetGlobalHAL(mockHAL)
}
