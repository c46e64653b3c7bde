package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventEntrySubmitted  = "entry.submitted"
	EventEntryApproved   = "entry.approved"
	EventEntryRejected   = "entry.rejected"
	EventImportCommitted = "import.committed"
)

type EntryEvent struct {
	Type           string      `json:"type"`
	OrganizationID uuid.UUID   `json:"organizationID"`
	ActorID        uuid.UUID   `json:"actorID"`
	EntryID        *uuid.UUID  `json:"entryID,omitempty"`
	OwnerID        *uuid.UUID  `json:"ownerID,omitempty"`
	Status         EntryStatus `json:"status,omitempty"`
	Data           any         `json:"data,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}
