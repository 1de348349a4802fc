// Package mongo archives product listing snapshots in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config holds the archive connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Archive is a connected snapshot archive.
type Archive struct {
	Client   *mongo.Client
	Exporter *SnapshotExporter
}

// Open connects to MongoDB, verifies the connection with a ping and returns
// an Archive whose exporter writes to cfg.Collection.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: empty URI")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetAppName("catalog-client"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Archive{
		Client:   client,
		Exporter: NewSnapshotExporter(client.Database(cfg.Database), cfg.Collection),
	}, nil
}

// Close disconnects the client.
func (a *Archive) Close(ctx context.Context) error {
	return a.Client.Disconnect(ctx)
}
