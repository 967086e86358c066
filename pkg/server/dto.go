package server

import (
	"time"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/scoring"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/trace"
)

// EntityDTO is one match on the wire.
type EntityDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      entity.Type        `json:"type"`
	Source    entity.Source      `json:"source"`
	SourceID  string             `json:"sourceId,omitempty"`
	Score     float64            `json:"score"`
	AltNames  []string           `json:"altNames,omitempty"`
	Programs  []string           `json:"programs,omitempty"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
}

// SearchResponse is the single-search reply.
type SearchResponse struct {
	Entities     []EntityDTO   `json:"entities"`
	TotalResults int           `json:"totalResults"`
	RequestID    string        `json:"requestID"`
	Trace        []trace.Event `json:"trace,omitempty"`
}

// toEntityDTO flattens a search result for the wire. The breakdown rides
// along only when the caller asked for it.
func toEntityDTO(r search.Result, withBreakdown bool) EntityDTO {
	dto := EntityDTO{
		ID:       r.Entity.ID,
		Name:     r.Entity.PrimaryName,
		Type:     r.Entity.Type,
		Source:   r.Entity.Source,
		SourceID: r.Entity.SourceID,
		Score:    r.Score,
		AltNames: r.Entity.AltNames,
		Programs: r.Entity.SanctionsInfo.Programs,
	}
	if withBreakdown {
		b := r.Breakdown
		dto.Breakdown = &b
	}
	return dto
}

// BatchItemDTO is one item's outcome on the wire.
type BatchItemDTO struct {
	RequestID     string           `json:"requestId"`
	OriginalQuery string           `json:"originalQuery"`
	Status        batch.ItemStatus `json:"status"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
	Matches       []EntityDTO      `json:"matches"`
}

// BatchResponseDTO is the synchronous batch reply.
type BatchResponseDTO struct {
	Results    []BatchItemDTO   `json:"results"`
	Statistics batch.Statistics `json:"statistics"`
	RequestID  string           `json:"requestID"`
}

// toBatchResponse flattens a finished batch for the wire.
func toBatchResponse(resp *batch.Response, requestID string) BatchResponseDTO {
	out := BatchResponseDTO{
		Results:    make([]BatchItemDTO, 0, len(resp.Results)),
		Statistics: resp.Statistics,
		RequestID:  requestID,
	}
	for _, item := range resp.Results {
		dto := BatchItemDTO{
			RequestID:     item.RequestID,
			OriginalQuery: item.OriginalQuery,
			Status:        item.Status,
			ErrorMessage:  item.ErrorMessage,
			Matches:       make([]EntityDTO, 0, len(item.Matches)),
		}
		for _, m := range item.Matches {
			dto.Matches = append(dto.Matches, toEntityDTO(m, false))
		}
		out.Results = append(out.Results, dto)
	}
	return out
}

// JobSubmittedDTO acknowledges an async batch submission.
type JobSubmittedDTO struct {
	JobID       string          `json:"jobId"`
	Status      batch.JobStatus `json:"status"`
	ItemCount   int             `json:"itemCount"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// JobStatusDTO reports an async job's state, with results once terminal.
type JobStatusDTO struct {
	JobID       string            `json:"jobId"`
	Status      batch.JobStatus   `json:"status"`
	ItemCount   int               `json:"itemCount"`
	SubmittedAt time.Time         `json:"submittedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Error       string            `json:"error,omitempty"`
	Response    *BatchResponseDTO `json:"response,omitempty"`
}

// toJobStatus flattens a job for the wire.
func toJobStatus(job batch.Job, requestID string) JobStatusDTO {
	dto := JobStatusDTO{
		JobID:       job.ID,
		Status:      job.Status,
		ItemCount:   job.ItemCount,
		SubmittedAt: job.SubmittedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	}
	if job.Response != nil {
		resp := toBatchResponse(job.Response, requestID)
		dto.Response = &resp
	}
	return dto
}

// ListInfoDTO summarizes the loaded corpus per source.
type ListInfoDTO struct {
	Sources     []SourceInfoDTO `json:"sources"`
	LastUpdated time.Time       `json:"lastUpdated,omitempty"`
}

// SourceInfoDTO is one source's corpus summary.
type SourceInfoDTO struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	EntityCount int       `json:"entityCount"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// BatchConfigDTO advertises the static batch capabilities.
type BatchConfigDTO struct {
	MaxBatchSize     int      `json:"maxBatchSize"`
	DefaultMinMatch  float64  `json:"defaultMinMatch"`
	DefaultLimit     int      `json:"defaultLimit"`
	SupportedSources []string `json:"supportedSources"`
	SupportedTypes   []string `json:"supportedTypes"`
}

// HealthDTO is the health probe body.
type HealthDTO struct {
	Status      string `json:"status"`
	EntityCount int    `json:"entityCount"`
}
