package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// Client wraps the Firestore connection shared by all repositories.
type Client struct {
	FS        *firestore.Client
	ProjectID string
}

// NewClient connects to Firestore. An empty credentials file falls back to
// Application Default Credentials, which is what runs in production.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	var (
		fs  *firestore.Client
		err error
	)
	if credentialsFile != "" {
		fs, err = firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	} else {
		fs, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Client{FS: fs, ProjectID: projectID}, nil
}

// Ping verifies the connection with a cheap read. Firestore has no ping API,
// so listing collections stands in for one.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.FS == nil {
		return fmt.Errorf("firestore client is nil")
	}
	if _, err := c.FS.Collections(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.FS == nil {
		return nil
	}
	return c.FS.Close()
}
