//go:build integration

package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

/*
Test helpers for MongoDB with testcontainers

- Starts a real MongoDB container
- Returns a repository bound to a throwaway database
- Cleanup disconnects and terminates the container
*/

const testDatabase = "library_test"

// MongoContainer holds the container and its connection string
type MongoContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// SetupMongoContainer creates and starts a MongoDB container
func SetupMongoContainer(t *testing.T, ctx context.Context) (*MongoContainer, func()) {
	t.Helper()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start MongoDB container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get MongoDB connection string")

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate MongoDB container: %v", err)
		}
	}

	return &MongoContainer{Container: container, URI: uri}, cleanup
}

// CreateTestRepository connects a repository to the container
func CreateTestRepository(t *testing.T, ctx context.Context, uri string) *Repository {
	t.Helper()

	repo, err := NewRepository(ctx, uri, testDatabase, DefaultCollection)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Drop(context.Background())
		_ = repo.Close(context.Background())
	})

	return repo
}
