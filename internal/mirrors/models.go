package mirrors

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/backgitup/backgitup/pkg/badgerfx"
)

const (
	prefix = "mirror:"

	prefixByID      = prefix + "id:"
	prefixByOutcome = prefix + "outcome:"
)

// mirrorModel is the persisted form of MirrorRecord.
type mirrorModel struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	CloneURL string `json:"clone_url"`
	Path     string `json:"path"`

	LastOutcome         Outcome    `json:"last_outcome"`
	LastReason          string     `json:"last_reason,omitempty"`
	Head                string     `json:"head,omitempty"`
	LastAttemptAt       time.Time  `json:"last_attempt_at"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mirrorID(owner, name string) string {
	return strings.ToLower(owner + "/" + name)
}

func mirrorKey(owner, name string) string {
	return prefixByID + mirrorID(owner, name)
}

func outcomePrefix(outcome Outcome) string {
	return prefixByOutcome + string(outcome) + ":"
}

func newMirrorModel(record *MirrorRecord) *mirrorModel {
	if record == nil {
		return nil
	}

	return &mirrorModel{
		Owner:               record.Owner,
		Name:                record.Name,
		CloneURL:            record.CloneURL,
		Path:                record.Path,
		LastOutcome:         record.LastOutcome,
		LastReason:          record.LastReason,
		Head:                record.Head,
		LastAttemptAt:       record.LastAttemptAt,
		LastSuccessAt:       record.LastSuccessAt,
		ConsecutiveFailures: record.ConsecutiveFailures,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}

func newMirrorRecord(model *mirrorModel) *MirrorRecord {
	if model == nil {
		return nil
	}

	return &MirrorRecord{
		Owner:               model.Owner,
		Name:                model.Name,
		CloneURL:            model.CloneURL,
		Path:                model.Path,
		LastOutcome:         model.LastOutcome,
		LastReason:          model.LastReason,
		Head:                model.Head,
		LastAttemptAt:       model.LastAttemptAt,
		LastSuccessAt:       model.LastSuccessAt,
		ConsecutiveFailures: model.ConsecutiveFailures,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// StorageKey implements badgerfx.Entity.
func (m *mirrorModel) StorageKey() string {
	return mirrorKey(m.Owner, m.Name)
}

// StorageIndexes implements badgerfx.Entity.
func (m *mirrorModel) StorageIndexes() []string {
	return []string{outcomePrefix(m.LastOutcome) + mirrorID(m.Owner, m.Name)}
}

// MarshalStorage implements badgerfx.Entity.
func (m *mirrorModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStorage implements badgerfx.Entity.
func (m *mirrorModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m)
}

var _ badgerfx.Entity = (*mirrorModel)(nil)
