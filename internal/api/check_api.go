// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/alvinbaena/pwd-fortress/internal/audit"
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"github.com/alvinbaena/pwd-fortress/pkg/strength"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"net/http"
	"strings"
)

type checkApi struct {
	client  *hibp.Client
	auditor *audit.Auditor
}

func toLeakStatus(r audit.Report) leakStatus {
	status := leakStatus{Checked: r.Checked, LookupFailed: r.Checked && r.Leak.Failed}
	if r.Checked && r.Leak.Known() {
		count := r.Leak.Count
		status.Leaks = &count
		status.Pwned = count > 0
	}
	return status
}

func (q *checkApi) checkPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := q.auditor.Audit(c.Request.Context(), req.Password)
	c.JSON(http.StatusOK, passwordResponse{
		Score:      report.Strength.Score,
		Label:      strength.Label(report.Strength.Score),
		Feedback:   report.Strength.Feedback,
		CrackTime:  report.Strength.CrackTimeDisplay,
		leakStatus: toLeakStatus(report),
	})
}

func (q *checkApi) checkHash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !hibp.IsSHA1Hex(req.Hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is not a valid SHA1 Hexadecimal hash"})
		return
	}

	report := audit.Report{Checked: true}
	count, err := q.client.LookupDigest(c.Request.Context(), strings.ToUpper(req.Hash))
	if err != nil {
		log.Warn().Err(err).Msg("hash lookup failed")
		report.Leak = hibp.LookupFailed
	} else {
		report.Leak = hibp.Result{Count: count}
	}

	c.JSON(http.StatusOK, toLeakStatus(report))
}

func RegisterCheckApi(group *gin.RouterGroup, client *hibp.Client) {
	q := &checkApi{client: client, auditor: audit.NewAuditor(client)}

	group.POST("/password", q.checkPassword)
	group.POST("/hash", q.checkHash)
}
