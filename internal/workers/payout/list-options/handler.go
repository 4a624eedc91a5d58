// internal/workers/payout/list-options/handler.go
package listoptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	cerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/common/logger"
	"posp-payout-workers/internal/common/metrics"
	"posp-payout-workers/internal/models"
	"posp-payout-workers/internal/store"
)

const (
	TaskType = "list-options"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

// listableDimensions are the dropdown dimensions this worker serves. Age and
// GVW are numeric inputs, not dropdowns, so they are absent.
var listableDimensions = map[string]bool{
	models.DimState:            true,
	models.DimRTOCode:          true,
	models.DimVehicleCategory:  true,
	models.DimVehicleType:      true,
	models.DimMake:             true,
	models.DimModel:            true,
	models.DimFuelType:         true,
	models.DimCCSlab:           true,
	models.DimWattSlab:         true,
	models.DimSeatingCapacity:  true,
	models.DimNCBSlab:          true,
	models.DimCPACover:         true,
	models.DimZeroDepreciation: true,
	models.DimTrailer:          true,
	models.DimBusinessType:     true,
	models.DimPolicyType:       true,
}

type Handler struct {
	config *Config
	store  *store.Store
	logger logger.Logger
}

func NewHandler(config *Config, st *store.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  st,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		var stdErr *cerrors.StandardError
		if errors.As(err, &stdErr) {
			bpmnErr := cerrors.ConvertToBPMNError(stdErr)
			metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
			h.failJob(client, job, bpmnErr.Code, bpmnErr.Message, int32(bpmnErr.Retries))
			return
		}
		h.failJob(client, job, "LIST_OPTIONS_FAILED", err.Error(), 0)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	dimension := strings.TrimSpace(input.Dimension)
	if !listableDimensions[dimension] {
		return nil, cerrors.NewValidationFailedError(
			fmt.Sprintf("unknown dimension %q", input.Dimension))
	}

	// Business types are a fixed pair: stored rows spell them many ways
	// (Renewal, Rollover, blank) but the UI only ever offers New and Old.
	if dimension == models.DimBusinessType {
		return &Output{Dimension: dimension, Values: []string{"New", "Old"}, Count: 2}, nil
	}

	values, err := h.store.DistinctValues(ctx, dimension, cascadeFilters(input.Filters))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, cerrors.NewSnapshotQueryTimeoutError()
		}
		return nil, err
	}

	values = decorate(dimension, values)
	return &Output{Dimension: dimension, Values: values, Count: len(values)}, nil
}

func cascadeFilters(raw map[string]string) []store.Filter {
	if len(raw) == 0 {
		return nil
	}
	filters := make([]store.Filter, 0, len(raw))
	for dim, value := range raw {
		filters = append(filters, store.Filter{Dimension: dim, Value: value})
	}
	// Map iteration order is random; a stable order keeps cache keys stable.
	sort.Slice(filters, func(i, j int) bool { return filters[i].Dimension < filters[j].Dimension })
	return filters
}

// decorate applies per-dimension presentation rules: states show display
// names and gain the catch-all option, RTO lists drop the stored catch-all
// token because the UI renders its own.
func decorate(dimension string, values []string) []string {
	switch dimension {
	case models.DimState:
		out := make([]string, 0, len(values)+1)
		for _, v := range values {
			if strings.EqualFold(v, "others") {
				continue
			}
			if name, ok := models.StateDisplayNames[strings.ToUpper(v)]; ok {
				out = append(out, name)
			} else {
				out = append(out, v)
			}
		}
		return append(out, "Others")
	case models.DimRTOCode:
		out := values[:0]
		for _, v := range values {
			if !strings.EqualFold(v, "others") {
				out = append(out, v)
			}
		}
		return out
	}
	return values
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	if retries > 0 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(retries).
			ErrorMessage(errorMessage).
			Send(context.Background())
		if err != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{
				"error": err,
			})
		}
		return
	}

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute runs the lookup outside a Zeebe job, for tests and tooling.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
