package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionEvent is published once a submission passes validation and is
// consumed by the worker that forwards it to the remote sink.
type SubmissionEvent struct {
	ID          uuid.UUID  `json:"id"`
	Submission  Submission `json:"submission"`
	ValidatedAt time.Time  `json:"validated_at"`
}

func NewSubmissionEvent(sub *Submission, now time.Time) *SubmissionEvent {
	return &SubmissionEvent{
		ID:          uuid.New(),
		Submission:  *sub,
		ValidatedAt: now.UTC(),
	}
}
