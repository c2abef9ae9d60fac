package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadripper/internal/config"
	"leadripper/internal/models"
)

const QueueName = "validation:tasks"

var (
	// ErrEmpty is returned by Pop when nothing arrived before the timeout.
	ErrEmpty = errors.New("queue empty")
	// ErrMalformedTask is returned by Pop for a payload that does not decode.
	// The task carries whatever jobId and email could be recovered.
	ErrMalformedTask = errors.New("malformed task")
)

// Task is one address of a bulk job.
type Task struct {
	JobID   string                   `json:"jobId"`
	Email   string                   `json:"email"`
	Options models.ValidationOptions `json:"options"`
}

// Connect opens a Redis client and pings it to ensure it's alive.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Queue is a FIFO of tasks on a Redis list.
type Queue struct {
	client redis.Cmdable
	name   string
}

func New(client redis.Cmdable) *Queue {
	return &Queue{client: client, name: QueueName}
}

// Enqueue pushes all tasks in one round trip.
func (q *Queue) Enqueue(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode task: %w", err)
		}
		values = append(values, raw)
	}
	if err := q.client.RPush(ctx, q.name, values...).Err(); err != nil {
		return fmt.Errorf("enqueue %d tasks: %w", len(tasks), err)
	}
	return nil
}

// Pop blocks up to timeout for the next task.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Task, error) {
	result, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, ErrEmpty
	}
	if err != nil {
		return Task{}, fmt.Errorf("blpop: %w", err)
	}

	// BLPOP returns [queue_name, value]
	return decodeTask(result[1])
}

func decodeTask(raw string) (Task, error) {
	var task Task
	err := json.Unmarshal([]byte(raw), &task)
	if err == nil {
		return task, nil
	}

	// salvage the identifying fields so the job can still be accounted for
	var fields map[string]json.RawMessage
	var partial Task
	if json.Unmarshal([]byte(raw), &fields) == nil {
		json.Unmarshal(fields["jobId"], &partial.JobID)
		json.Unmarshal(fields["email"], &partial.Email)
	}
	return partial, fmt.Errorf("%w %q: %v", ErrMalformedTask, raw, err)
}
