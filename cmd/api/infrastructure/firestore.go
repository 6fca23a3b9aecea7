package infrastructure

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"user-rest-service/internal/config"
)

// NewFirestoreClient creates a Firestore client. Without a credentials file the
// application default credentials are used; FIRESTORE_EMULATOR_HOST is honored
// by the client library.
func NewFirestoreClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*firestore.Client, error) {
	projectID := cfg.Firestore.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if cfg.Firestore.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	}

	var (
		client *firestore.Client
		err    error
	)
	if cfg.Firestore.DatabaseID == "" || cfg.Firestore.DatabaseID == firestore.DefaultDatabaseID {
		client, err = firestore.NewClient(ctx, projectID, opts...)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, cfg.Firestore.DatabaseID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	l.Info("firestore client created",
		zap.String("project_id", projectID),
		zap.String("database_id", cfg.Firestore.DatabaseID),
	)
	return client, nil
}
