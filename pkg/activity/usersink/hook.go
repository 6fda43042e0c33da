package usersink

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-appboot/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Namespace seeds the name-based UUIDs derived for actors and tenants that
// are not UUIDs themselves, e.g. "cli" or "deploy-bot".
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/goliatone/go-appboot"))

// Hook forwards application lifecycle events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// TenantID is stamped on every record.
	TenantID string
	// Verbs limits forwarding to the listed verbs. Empty forwards all.
	Verbs []string
}

// Notify converts event with Record and logs it when the hook accepts it.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event, h.TenantID)
	if !ok || !h.accepts(record.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) accepts(verb string) bool {
	return len(h.Verbs) == 0 || slices.Contains(h.Verbs, verb)
}

// Record maps event to an ActivityRecord. It reports false for events without
// a verb or object. The raw actor is kept in Data["actor"] when it had to be
// mapped to a name-based UUID.
func Record(event activity.Event, tenant string) (usertypes.ActivityRecord, bool) {
	if !event.Complete() {
		return usertypes.ActivityRecord{}, false
	}
	normalized := event.Normalized()

	data := make(map[string]any, len(normalized.Metadata)+2)
	for key, value := range normalized.Metadata {
		data[key] = value
	}
	if normalized.Environment != "" {
		data["environment"] = normalized.Environment
	}

	actorID, derived := identity(normalized.ActorID)
	if derived {
		data["actor"] = normalized.ActorID
	}
	tenantID, _ := identity(tenant)

	if len(data) == 0 {
		data = nil
	}

	return usertypes.ActivityRecord{
		ActorID:    actorID,
		UserID:     actorID,
		TenantID:   tenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	}, true
}

// identity parses value as a UUID, falling back to a UUID derived from
// Namespace. derived is true for the fallback.
func identity(value string) (id uuid.UUID, derived bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, false
	}
	if parsed, err := uuid.Parse(value); err == nil {
		return parsed, false
	}
	return uuid.NewSHA1(Namespace, []byte(value)), true
}
