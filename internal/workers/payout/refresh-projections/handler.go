// internal/workers/payout/refresh-projections/handler.go
package refreshprojections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	TaskType = "refresh-projections"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

// warmDimensions are the unfiltered projections recomputed eagerly after an
// import. Cascaded variants (makes for one vehicle type, and so on) fill in
// lazily on first use.
var warmDimensions = []string{
	models.DimState,
	models.DimVehicleCategory,
	models.DimVehicleType,
	models.DimFuelType,
	models.DimCCSlab,
	models.DimWattSlab,
	models.DimSeatingCapacity,
	models.DimNCBSlab,
	models.DimCPACover,
	models.DimZeroDepreciation,
	models.DimTrailer,
	models.DimMake,
	models.DimPolicyType,
}

// Input optionally names the import batch whose cached projections should be
// dropped. Zero means "whatever is current".
type Input struct {
	PreviousImportID int64 `json:"previousImportId,omitempty"`
}

// Output reports what was refreshed.
type Output struct {
	ImportID          int64          `json:"importId"`
	InvalidatedImport int64          `json:"invalidatedImport,omitempty"`
	OptionCounts      map[string]int `json:"optionCounts"`
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
		h.failJob(client, job, "PROJECTION_REFRESH_FAILED", err.Error(), 0)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	h.logger.Info("projections refreshed", map[string]interface{}{
		"importId":   output.ImportID,
		"dimensions": len(output.OptionCounts),
		"durationMs": time.Since(start).Milliseconds(),
	})
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	importID, err := h.store.CurrentImportID(ctx)
	if err != nil {
		return nil, err
	}
	if importID == 0 {
		return nil, cerrors.NewProjectionRefreshFailedError("*",
			errors.New("no completed import batch"))
	}

	output := &Output{
		ImportID:     importID,
		OptionCounts: make(map[string]int, len(warmDimensions)),
	}

	// Drop the superseded batch's cache first so a crash mid-warm leaves no
	// stale options behind.
	if input.PreviousImportID > 0 && input.PreviousImportID != importID {
		if err := h.store.InvalidateProjections(ctx, input.PreviousImportID); err != nil {
			return nil, err
		}
		output.InvalidatedImport = input.PreviousImportID
	}
	if err := h.store.InvalidateProjections(ctx, importID); err != nil {
		return nil, err
	}

	for _, dimension := range warmDimensions {
		values, err := h.store.DistinctValues(ctx, dimension, nil)
		if err != nil {
			return nil, cerrors.NewProjectionRefreshFailedError(dimension, err)
		}
		output.OptionCounts[dimension] = len(values)
	}

	return output, nil
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

// Execute runs the refresh outside a Zeebe job, for tests and tooling.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
