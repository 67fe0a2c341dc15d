package mirrors

import "time"

// MirrorResponse represents the last known status of a mirror.
type MirrorResponse struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	CloneURL string `json:"clone_url"`
	Path     string `json:"path"`

	LastOutcome         string     `json:"last_outcome"`
	LastReason          string     `json:"last_reason,omitempty"`
	Head                string     `json:"head,omitempty"`
	LastAttemptAt       time.Time  `json:"last_attempt_at"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuery represents the query parameters for listing mirrors.
type ListQuery struct {
	Outcome string `query:"outcome" validate:"omitempty,oneof=cloned updated recloned failed"`
}
