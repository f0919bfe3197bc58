package activity

import (
	"strings"
	"time"

	lexical "github.com/goliatone/go-lexical"
)

// Verbs and object types used by lexical events.
const (
	VerbEntryAdded    = "entry.added"
	VerbEntryRemoved  = "entry.removed"
	VerbEntryModified = "entry.modified"
	VerbEntryRetained = "entry.retained"
	VerbDocumentSaved = "document.saved"

	ObjectTypeEntry    = "lexical.entry"
	ObjectTypeDocument = "lexical.document"
)

// EventInput carries the fields shared by every event of one write.
type EventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Resource   string
	SnapshotID string
	Metadata   map[string]any
	OccurredAt time.Time
}

// EntryVerb maps a change kind onto its event verb.
func EntryVerb(kind lexical.ChangeKind) string {
	switch kind {
	case lexical.ChangeAdded:
		return VerbEntryAdded
	case lexical.ChangeRemoved:
		return VerbEntryRemoved
	case lexical.ChangeModified:
		return VerbEntryModified
	case lexical.ChangeRetained:
		return VerbEntryRetained
	default:
		return "entry." + string(kind)
	}
}

// BuildEntryEvent describes a single reconciled entry. The object ID joins
// the resource and the entry key with '#'.
func BuildEntryEvent(input EventInput, change lexical.Change) Event {
	metadata := baseMetadata(input)
	metadata["key"] = change.Key
	if len(change.OldValues) > 0 {
		metadata["old_values"] = append([]string(nil), change.OldValues...)
	}
	if len(change.NewValues) > 0 {
		metadata["new_values"] = append([]string(nil), change.NewValues...)
	}

	objectID := change.Key
	if resource := strings.TrimSpace(input.Resource); resource != "" {
		objectID = resource + "#" + change.Key
	}
	return newEvent(input, EntryVerb(change.Kind), ObjectTypeEntry, objectID, metadata)
}

// BuildEntryEvents returns one event per change in report order.
func BuildEntryEvents(input EventInput, report lexical.Report) []Event {
	events := make([]Event, 0, len(report.Changes))
	for _, change := range report.Changes {
		events = append(events, BuildEntryEvent(input, change))
	}
	return events
}

// BuildDocumentSavedEvent summarizes a write with per-kind change counts.
func BuildDocumentSavedEvent(input EventInput, report lexical.Report) Event {
	metadata := baseMetadata(input)
	metadata["flags"] = report.Flags.String()
	metadata["added"] = report.Count(lexical.ChangeAdded)
	metadata["removed"] = report.Count(lexical.ChangeRemoved)
	metadata["modified"] = report.Count(lexical.ChangeModified)
	metadata["retained"] = report.Count(lexical.ChangeRetained)

	objectID := strings.TrimSpace(input.Resource)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = ObjectTypeDocument
	}
	return newEvent(input, VerbDocumentSaved, ObjectTypeDocument, objectID, metadata)
}

func baseMetadata(input EventInput) map[string]any {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if input.Resource != "" {
		metadata["resource"] = input.Resource
	}
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}
	return metadata
}

func newEvent(input EventInput, verb, objectType, objectID string, metadata map[string]any) Event {
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
