package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"leadripper/internal/config"
	"leadripper/internal/logging"
	"leadripper/internal/models"
	"leadripper/internal/queue"
)

const popTimeout = 5 * time.Second

type TaskSource interface {
	Pop(ctx context.Context, timeout time.Duration) (queue.Task, error)
}

type ResultSink interface {
	SaveResult(ctx context.Context, jobID string, res models.ValidationResult) error
}

type Validator interface {
	Validate(ctx context.Context, email string, opts models.ValidationOptions) (models.ValidationResult, error)
}

// Worker drains the task queue, validates each address and stores the
// result. A shared limiter paces validations across all loops so a large
// upload does not hammer the same mail exchangers.
type Worker struct {
	tasks   TaskSource
	results ResultSink
	engine  Validator
	limiter *rate.Limiter
	cfg     config.WorkerConfig
	log     logrus.FieldLogger
}

func New(tasks TaskSource, results ResultSink, engine Validator, cfg config.WorkerConfig, log logrus.FieldLogger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Worker{
		tasks:   tasks,
		results: results,
		engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cfg:     cfg,
		log:     log,
	}
}

// Run blocks until ctx is cancelled and every loop has finished its
// current task.
func (w *Worker) Run(ctx context.Context) {
	w.log.WithField("concurrency", w.cfg.Concurrency).Info("worker started, waiting for tasks")

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, w.log.WithField("loop", id))
		}(i)
	}
	wg.Wait()

	w.log.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context, log logrus.FieldLogger) {
	for ctx.Err() == nil {
		task, err := w.tasks.Pop(ctx, popTimeout)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			continue
		case errors.Is(err, queue.ErrMalformedTask):
			w.discard(ctx, task, err, log)
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("failed to pop task")
			sleep(ctx, time.Second)
			continue
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		if err := w.process(ctx, task); err != nil {
			logging.LogError(log, "save_result", err, map[string]interface{}{
				"job_id": task.JobID,
				"email":  task.Email,
			})
		}
	}
}

// process validates one task and stores the outcome. A validation that
// could not finish is still stored so the job's progress reaches its total.
func (w *Worker) process(ctx context.Context, task queue.Task) error {
	valCtx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()

	start := time.Now()
	res, err := w.engine.Validate(valCtx, task.Email, task.Options)
	if err != nil {
		w.log.WithError(err).WithField("email", task.Email).Warn("validation did not complete")
		res = incomplete(task.Email, err)
	}
	res.Duration = time.Since(start).String()

	// a cancelled parent must not abort the write of a finished result
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer saveCancel()
	if err := w.results.SaveResult(saveCtx, task.JobID, res); err != nil {
		return err
	}

	w.log.WithFields(logrus.Fields{
		"job_id": task.JobID,
		"email":  task.Email,
		"score":  res.Score,
	}).Info("processed")
	return nil
}

// discard records a task that could not be decoded. When its job is known
// an incomplete result is stored so the job's progress still reaches its
// total.
func (w *Worker) discard(ctx context.Context, task queue.Task, err error, log logrus.FieldLogger) {
	if task.JobID == "" {
		log.WithError(err).Error("dropping task without a job id")
		return
	}
	log.WithError(err).WithField("job_id", task.JobID).Warn("storing malformed task as incomplete")

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := w.results.SaveResult(saveCtx, task.JobID, incomplete(task.Email, err)); err != nil {
		logging.LogError(log, "save_result", err, map[string]interface{}{
			"job_id": task.JobID,
			"email":  task.Email,
		})
	}
}

func incomplete(email string, err error) models.ValidationResult {
	res := models.NewResult(email)
	res.Errors = append(res.Errors, "Validation did not complete: "+err.Error())
	res.Recommendation = models.RecommendationBad
	res.RecommendationDetail = res.Recommendation.Detail()
	return res
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
