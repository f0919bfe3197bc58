// Package usersink forwards lexical activity events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-lexical/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

var _ activity.ActivityHook = Hook{}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identifiers that are not UUIDs are kept verbatim under "<field>_ref" in
// the record data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID("actor", normalized.ActorID, &data),
		UserID:     parseUUID("user", normalized.UserID, &data),
		TenantID:   parseUUID("tenant", normalized.TenantID, &data),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		OccurredAt: normalized.OccurredAt,
	}
	record.Data = data

	return h.Sink.Log(ctx, record)
}

func parseUUID(field, input string, data *map[string]any) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err == nil {
		return id
	}
	if *data == nil {
		*data = map[string]any{}
	}
	(*data)[field+"_ref"] = value
	return uuid.Nil
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
