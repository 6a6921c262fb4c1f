package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// MailQueue hands outbound email jobs to the delivery worker over Redis.
// The application never talks SMTP itself.
type MailQueue struct {
	client *redis.Client
	prefix string
}

// MailMessage is one queued email job
type MailMessage struct {
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Template string                 `json:"template"`
	Params   map[string]interface{} `json:"params"`
	Created  int64                  `json:"created"`
}

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

func NewMailQueue(config *Config) *MailQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "saaskit:mail"
	}

	return &MailQueue{
		client: client,
		prefix: prefix,
	}
}

func (q *MailQueue) Close() error {
	return q.client.Close()
}

func (q *MailQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

func (q *MailQueue) queueKey() string {
	return q.prefix + ":outbound"
}

// Enqueue pushes an email job onto the outbound queue
func (q *MailQueue) Enqueue(ctx context.Context, to, subject, template string, params map[string]interface{}) error {
	message := MailMessage{
		To:       to,
		Subject:  subject,
		Template: template,
		Params:   params,
		Created:  time.Now().Unix(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	return q.client.LPush(ctx, q.queueKey(), data).Err()
}

// Dequeue blocks up to timeout waiting for the next job; nil message on
// timeout, error on transport failure.
func (q *MailQueue) Dequeue(ctx context.Context, timeout time.Duration) (*MailMessage, error) {
	values, err := q.client.BRPop(ctx, timeout, q.queueKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	var message MailMessage
	if err := json.Unmarshal([]byte(values[1]), &message); err != nil {
		return nil, fmt.Errorf("unmarshal mail message: %w", err)
	}
	return &message, nil
}

// Length reports the number of pending jobs
func (q *MailQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueKey()).Result()
}
