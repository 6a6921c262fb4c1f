package database

import (
	"sync"

	"saaskit/pkg/config"
	"saaskit/pkg/queue"
)

var (
	mailQueueInstance *queue.MailQueue
	mailQueueOnce     sync.Once
)

// GetMailQueue returns the singleton outbound mail queue
func GetMailQueue() *queue.MailQueue {
	mailQueueOnce.Do(func() {
		cfg := config.GetConfig()
		mailQueueInstance = queue.NewMailQueue(&queue.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return mailQueueInstance
}

// CloseMailQueue closes the Redis connection
func CloseMailQueue() error {
	if mailQueueInstance != nil {
		return mailQueueInstance.Close()
	}
	return nil
}
