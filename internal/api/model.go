// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

type hashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type generateRequest struct {
	Strategy string `json:"strategy"`
	Check    bool   `json:"check"`
}

// leakStatus keeps "no leaks" (leaks = 0) apart from "unknown" (leaks = null, lookup_failed = true).
type leakStatus struct {
	Checked      bool   `json:"checked"`
	Pwned        bool   `json:"pwned"`
	Leaks        *int64 `json:"leaks"`
	LookupFailed bool   `json:"lookup_failed"`
}

type passwordResponse struct {
	Score     int    `json:"score"`
	Label     string `json:"label"`
	Feedback  string `json:"feedback,omitempty"`
	CrackTime string `json:"crack_time"`
	leakStatus
}

type generateResponse struct {
	Password string      `json:"password"`
	Strategy string      `json:"strategy"`
	Score    int         `json:"score"`
	Label    string      `json:"label"`
	Leak     *leakStatus `json:"leak,omitempty"`
}

type healthResponse struct {
	Status            string  `json:"status"`
	MemoryTotal       uint64  `json:"memory_total,omitempty"`
	MemoryAvailable   uint64  `json:"memory_available,omitempty"`
	MemoryUsedPercent float64 `json:"memory_used_percent,omitempty"`
}
