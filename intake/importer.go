/*
Package intake handles bulk asset import at project onboarding.

PURPOSE:
  Customers deliver manifests with hundreds of assets at once. The
  importer writes them in fixed-size chunks, sequentially. The first
  failing chunk aborts the remaining chunks; chunks already written stay
  written. There is no partial-success continuation and no retry -
  callers re-run the import with the remaining rows.
*/
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/recovery-engine/itad"
)

// ChunkSize is the number of assets written per store round-trip.
const ChunkSize = 100

// Importer loads asset manifests into a project.
type Importer struct {
	Assets   itad.AssetStore
	Projects itad.ProjectStore
}

func NewImporter(assets itad.AssetStore, projects itad.ProjectStore) *Importer {
	return &Importer{Assets: assets, Projects: projects}
}

// AssetRow is one manifest line.
type AssetRow struct {
	SerialNumber string
	Description  string
	ReceivedAt   time.Time
}

// ImportAssets validates and writes the rows in chunks of ChunkSize.
// It returns the number of assets written, which on error counts only
// the chunks that completed before the failure.
func (im *Importer) ImportAssets(ctx context.Context, projectID itad.ProjectID, rows []AssetRow) (int, error) {
	project, err := im.Projects.GetProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, itad.ErrProjectNotFound
	}

	// Validation runs up front so a bad row never aborts mid-import.
	for i, row := range rows {
		if row.SerialNumber == "" {
			return 0, &itad.ValidationError{
				Field:   fmt.Sprintf("rows[%d].serial_number", i),
				Message: "required",
			}
		}
	}

	imported := 0
	for start := 0; start < len(rows); start += ChunkSize {
		end := start + ChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		chunk := make([]itad.Asset, 0, end-start)
		now := time.Now().UTC()
		for _, row := range rows[start:end] {
			chunk = append(chunk, itad.Asset{
				ID:           itad.AssetID(uuid.NewString()),
				ProjectID:    projectID,
				SerialNumber: row.SerialNumber,
				Description:  row.Description,
				Status:       itad.AssetReceived,
				ReceivedAt:   row.ReceivedAt,
				CreatedAt:    now,
			})
		}

		if err := im.Assets.SaveAssets(ctx, chunk); err != nil {
			return imported, fmt.Errorf("import chunk starting at row %d: %w", start, err)
		}
		imported += len(chunk)
	}
	return imported, nil
}
