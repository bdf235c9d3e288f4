package api

import "github.com/google/uuid"

// newBatchID tags each batch/filter response so moderation pipelines
// can correlate results with their own logs.
func newBatchID() string {
	return uuid.NewString()
}
