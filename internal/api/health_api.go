// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
	"net/http"
)

func health(c *gin.Context) {
	resp := healthResponse{Status: "ok"}

	// Memory is informative only, a host that cannot report it is still healthy.
	if memStat, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		resp.MemoryTotal = memStat.Total
		resp.MemoryAvailable = memStat.Available
		resp.MemoryUsedPercent = memStat.UsedPercent
	} else {
		log.Debug().Err(err).Msg("error getting current memory usage")
	}

	c.JSON(http.StatusOK, resp)
}

func RegisterHealthApi(group *gin.RouterGroup) {
	group.GET("/health", health)
}
