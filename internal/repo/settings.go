package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/noah-isme/backend-pos/internal/settings"
)

// Settings persists the single "settings/store" document.
type Settings struct {
	Client *firestore.Client
}

func (r *Settings) doc() *firestore.DocumentRef {
	return r.Client.Collection("settings").Doc("store")
}

func (r *Settings) GetSettings(ctx context.Context) (settings.Store, error) {
	if r == nil || r.Client == nil {
		return settings.Store{}, errors.New("settings repo not configured")
	}
	snap, err := r.doc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return settings.Store{}, settings.ErrNotFound
	}
	if err != nil {
		return settings.Store{}, fmt.Errorf("get settings: %w", err)
	}
	var st settings.Store
	if err := snap.DataTo(&st); err != nil {
		return settings.Store{}, fmt.Errorf("decode settings: %w", err)
	}
	return st, nil
}

func (r *Settings) SaveSettings(ctx context.Context, st settings.Store) error {
	if r == nil || r.Client == nil {
		return errors.New("settings repo not configured")
	}
	if _, err := r.doc().Set(ctx, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
