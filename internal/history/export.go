package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harrison/sift/internal/filelock"
)

// exportDocument is the JSON layout written by Export.
type exportDocument struct {
	ExportedAt  time.Time     `json:"exported_at"`
	Database    string        `json:"database"`
	Count       int           `json:"count"`
	Invocations []*Invocation `json:"invocations"`
}

// Export writes the most recent invocations to path as indented JSON. The
// file is replaced atomically under "<path>.lock". It returns the number of
// invocations written.
func Export(ctx context.Context, store *Store, path string, limit int) (int, error) {
	invocations, err := store.Recent(ctx, limit)
	if err != nil {
		return 0, err
	}
	if invocations == nil {
		invocations = []*Invocation{}
	}

	doc := exportDocument{
		ExportedAt:  time.Now().UTC(),
		Database:    store.Path(),
		Count:       len(invocations),
		Invocations: invocations,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal history: %w", err)
	}
	data = append(data, '\n')

	if err := filelock.LockAndWrite(ctx, path, data, 0644); err != nil {
		return 0, fmt.Errorf("write history export: %w", err)
	}
	return len(invocations), nil
}
