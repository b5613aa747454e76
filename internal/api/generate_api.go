// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/alvinbaena/pwd-fortress/internal/audit"
	"github.com/alvinbaena/pwd-fortress/pkg/generator"
	"github.com/alvinbaena/pwd-fortress/pkg/strength"
	"github.com/gin-gonic/gin"
	"net/http"
)

type generateApi struct {
	gen     *generator.Generator
	auditor *audit.Auditor
}

func (g *generateApi) generate(c *gin.Context) {
	var req generateRequest
	// An empty body is fine, it means the default strategy.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	strategy := generator.Passphrase
	if req.Strategy != "" {
		var err error
		if strategy, err = generator.ParseStrategy(req.Strategy); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	password, err := g.gen.Generate(generator.Config{Strategy: strategy})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	report := audit.Report{Strength: strength.Analyze(password)}
	var status *leakStatus
	if req.Check {
		report = g.auditor.Audit(c.Request.Context(), password)
		s := toLeakStatus(report)
		status = &s
	}

	c.JSON(http.StatusOK, generateResponse{
		Password: password,
		Strategy: strategy.String(),
		Score:    report.Strength.Score,
		Label:    strength.Label(report.Strength.Score),
		Leak:     status,
	})
}

func RegisterGenerateApi(group *gin.RouterGroup, gen *generator.Generator, lookup audit.Lookuper) {
	g := &generateApi{gen: gen, auditor: audit.NewAuditor(lookup)}

	group.POST("", g.generate)
}
