// internal/workers/payout/check-payout/handler.go
package checkpayout

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
	"posp-payout-workers/internal/engine"
	"posp-payout-workers/internal/store"
)

const (
	TaskType = "check-payout"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

type Handler struct {
	config     *Config
	store      *store.Store
	engine     *engine.Engine
	errHandler *cerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, st *store.Store, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      st,
		engine:     engine.New(engine.Config{TopK: config.TopK}, log),
		errHandler: cerrors.NewErrorHandler(scoped),
		logger:     scoped,
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

	if err := validateShape([]byte(job.Variables)); err != nil {
		stdErr := cerrors.NewInvalidInputShapeError(err.Error())
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, stdErr)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		var stdErr *cerrors.StandardError
		if errors.As(err, &stdErr) {
			metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		} else {
			metrics.WorkerJobsFailed.WithLabelValues(TaskType, "INTERNAL_ERROR").Inc()
		}
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"status":     output.Status,
		"companies":  output.TotalCompanies,
		"durationMs": time.Since(start).Milliseconds(),
	})
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	q, rtoDisplay, stdErr := resolveQuery(input)
	if stdErr != nil {
		return nil, stdErr
	}

	rows, _, err := h.store.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, cerrors.NewSnapshotQueryTimeoutError()
		}
		return nil, err
	}

	result, err := h.engine.Evaluate(ctx, q, rows)
	if err != nil {
		return nil, err
	}

	metrics.PayoutRowsScanned.Observe(float64(result.Diagnostics.RowsScanned))
	if result.Diagnostics.MalformedRows > 0 {
		metrics.PayoutMalformedRows.Add(float64(result.Diagnostics.MalformedRows))
	}
	if result.IsNoMatch() {
		metrics.PayoutNoMatch.Inc()
	}

	output := &Output{
		Status:         result.Status,
		Message:        result.Message,
		RTOCode:        rtoDisplay,
		Groups:         result.Groups,
		Results:        result.Entries,
		TotalCompanies: len(result.Groups),
		Diagnostics:    result.Diagnostics,
	}

	if !h.config.QueryLogDisabled {
		if id, err := h.store.LogQuery(ctx, q, result); err == nil {
			output.QueryLogID = id
		} else {
			h.logger.Warn("query log insert failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
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
		"retries":      retries,
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

// Execute runs the payout check outside a Zeebe job, for tests and tooling.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
