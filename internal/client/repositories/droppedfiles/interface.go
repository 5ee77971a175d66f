// Package droppedfiles tracks files dragged into the client and their upload
// progress.
package droppedfiles

import (
	"context"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

type Repository interface {
	Upsert(ctx context.Context, f *models.DroppedFile) error
	Get(ctx context.Context, id string) (*models.DroppedFile, error)
	// List returns files newest first, optionally filtered by upload status.
	List(ctx context.Context, status *models.UploadStatus) ([]*models.DroppedFile, error)
	Delete(ctx context.Context, id string) error
}
