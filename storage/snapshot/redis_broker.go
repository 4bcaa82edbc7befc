package snapshot

import (
	"context"
	"log"

	"github.com/RichardKnop/machinery/v1"
	"github.com/RichardKnop/machinery/v1/config"
	"github.com/RichardKnop/machinery/v1/tasks"
)

const (
	SnapshotTaskName = "snapshotPosts"
	consumerTag      = "machinery_worker"
)

func brokerConfig(brokerUrl string) *config.Config {
	return &config.Config{
		DefaultQueue:    "machinery_tasks",
		ResultsExpireIn: 3600,
		Broker:          brokerUrl, // "redis://localhost:6379"
		ResultBackend:   brokerUrl,
		Redis: &config.RedisConfig{
			MaxIdle:                3,
			IdleTimeout:            240,
			ReadTimeout:            15,
			WriteTimeout:           15,
			ConnectTimeout:         15,
			NormalTasksPollPeriod:  1000,
			DelayedTasksPollPeriod: 500,
		},
	}
}

func startBroker(brokerUrl string, snapshotter *Snapshotter) (*machinery.Server, error) {
	server, err := machinery.NewServer(brokerConfig(brokerUrl))
	if err != nil {
		return nil, err
	}
	if snapshotter == nil {
		return server, nil
	}

	// Register tasks
	tasks := map[string]interface{}{
		SnapshotTaskName: snapshotter.SnapshotPosts,
	}
	return server, server.RegisterTasks(tasks)
}

func createSnapshotTask(reason string) tasks.Signature {
	task := tasks.Signature{
		Name: SnapshotTaskName,
		Args: []tasks.Arg{
			{
				Type:  "string",
				Value: reason,
			},
		},
	}
	return task
}

// Publisher queues a snapshot every time the posts change.
type Publisher struct {
	server *machinery.Server
}

// PostsChanged never fails the caller: a lost snapshot is only logged.
func (p *Publisher) PostsChanged(ctx context.Context, reason string) {
	task := createSnapshotTask(reason)
	if _, err := p.server.SendTaskWithContext(ctx, &task); err != nil {
		log.Printf("Failed to queue posts snapshot after %s: %s", reason, err.Error())
	}
}

func CreatePublisher(brokerUrl string) (*Publisher, error) {
	server, err := startBroker(brokerUrl, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{server: server}, nil
}

func CreateWorker(brokerUrl string, snapshotter *Snapshotter) error {
	broker, err := startBroker(brokerUrl, snapshotter)
	if err != nil {
		return err
	}

	worker := broker.NewWorker(consumerTag, 0)

	errorhandler := func(err error) {
		log.Printf("Something went wrong: %s", err)
	}

	worker.SetErrorHandler(errorhandler)

	return worker.Launch()
}
