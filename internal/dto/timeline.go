package dto

import (
	"time"

	"github.com/noah-isme/issue-tracker-api/internal/models"
)

// TimelineCursor marks where the next page of history resumes.
type TimelineCursor struct {
	OccurredAt time.Time `json:"occurred_at"`
	Seq        int64     `json:"seq"`
}

// TimelineResponse is one page of an issue's reconstructed history, oldest
// first. Next is null once the history is exhausted.
type TimelineResponse struct {
	Events []models.TimelineEvent `json:"events"`
	Next   *TimelineCursor        `json:"next,omitempty"`
	Total  int                    `json:"total"`
}
