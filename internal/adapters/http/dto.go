package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/restartfu/corepanel/internal/domain"
	"github.com/samber/lo"
)

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type identityResponse struct {
	CPUModel     string   `json:"cpu_model"`
	IsAMDVendor  bool     `json:"is_amd_vendor"`
	OSSummary    string   `json:"os_summary"`
	SummaryLines []string `json:"summary_lines"`
}

type coreResponse struct {
	Index          int    `json:"index"`
	Label          string `json:"label"`
	FrequencyLabel string `json:"frequency_label"`
	GovernorSymbol string `json:"governor_symbol"`
	IsOnline       bool   `json:"is_online"`
	Status         string `json:"status"`
}

type panelResponse struct {
	Identity identityResponse `json:"identity"`
	Cores    []coreResponse   `json:"cores"`
	Time     time.Time        `json:"time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toIdentity(id domain.HostIdentity) identityResponse {
	return identityResponse{
		CPUModel:     id.CPUModel,
		IsAMDVendor:  id.IsAMDVendor,
		OSSummary:    id.OSSummary,
		SummaryLines: strings.Split(id.OSSummary, "\n"),
	}
}

func toCores(cores []domain.CoreState) []coreResponse {
	return lo.Map(cores, func(c domain.CoreState, _ int) coreResponse {
		return coreResponse{
			Index:          c.Index,
			Label:          fmt.Sprintf("CPU%d", c.Index),
			FrequencyLabel: c.FrequencyLabel,
			GovernorSymbol: c.GovernorSymbol,
			IsOnline:       c.IsOnline,
			Status:         c.Status.String(),
		}
	})
}

func toPanel(p domain.Panel) panelResponse {
	return panelResponse{
		Identity: toIdentity(p.Identity),
		Cores:    toCores(p.Cores),
		Time:     p.Time,
	}
}
