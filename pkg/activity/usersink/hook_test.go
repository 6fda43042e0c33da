package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-appboot/pkg/activity"
	"github.com/goliatone/go-appboot/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookForwardsOptionsSet(t *testing.T) {
	sink := &recordingSink{}
	tenantID := uuid.New()
	actorID := uuid.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	hook := usersink.Hook{Sink: sink, TenantID: tenantID.String()}
	event := activity.BuildOptionsSetEvent(activity.EventInput{
		ActorID:     actorID.String(),
		Environment: "production",
		Channel:     "deploys",
		OccurredAt:  now,
	}, []string{"settings"}, 2)

	require.NoError(t, hook.Notify(context.Background(), event))
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actorID, record.ActorID)
	assert.Equal(t, actorID, record.UserID)
	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, activity.VerbOptionsSet, record.Verb)
	assert.Equal(t, activity.ObjectTypeApplication, record.ObjectType)
	assert.Equal(t, "production", record.ObjectID)
	assert.Equal(t, "deploys", record.Channel)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, "production", record.Data["environment"])
	assert.Equal(t, 2, record.Data["layers"])
	assert.NotContains(t, record.Data, "actor")
}

func TestRecordDerivesIdentifiersForNames(t *testing.T) {
	record, ok := usersink.Record(activity.Event{
		Verb:       activity.VerbRun,
		ActorID:    "deploy-bot",
		ObjectType: activity.ObjectTypeApplication,
		ObjectID:   "dev",
	}, "acme")
	require.True(t, ok)

	assert.Equal(t, uuid.NewSHA1(usersink.Namespace, []byte("deploy-bot")), record.ActorID)
	assert.Equal(t, uuid.NewSHA1(usersink.Namespace, []byte("acme")), record.TenantID)
	assert.Equal(t, "deploy-bot", record.Data["actor"])

	again, _ := usersink.Record(activity.Event{
		Verb:       activity.VerbBootstrap,
		ActorID:    " deploy-bot ",
		ObjectType: activity.ObjectTypeApplication,
		ObjectID:   "dev",
	}, "")
	assert.Equal(t, record.ActorID, again.ActorID, "derived ids are stable")
	assert.Equal(t, uuid.Nil, again.TenantID)
}

func TestRecordRejectsIncompleteEvents(t *testing.T) {
	_, ok := usersink.Record(activity.Event{Verb: activity.VerbRun}, "")
	assert.False(t, ok)

	sink := &recordingSink{}
	require.NoError(t, usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{}))
	assert.Empty(t, sink.records)
}

func TestRecordDefaultsTimestampAndOmitsEmptyData(t *testing.T) {
	record, ok := usersink.Record(activity.Event{
		Verb:       activity.VerbBootstrap,
		ObjectType: activity.ObjectTypeApplication,
		ObjectID:   "1",
	}, "")
	require.True(t, ok)
	assert.False(t, record.OccurredAt.IsZero())
	assert.Nil(t, record.Data)
	assert.Equal(t, uuid.Nil, record.ActorID)
}

func TestHookVerbFilterAndSinkErrors(t *testing.T) {
	sinkErr := errors.New("sink down")
	sink := &recordingSink{err: sinkErr}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbRun}}

	require.NoError(t, hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbConfigLoaded,
		ObjectType: activity.ObjectTypeApplication,
		ObjectID:   "base.yaml",
	}))
	assert.Empty(t, sink.records)

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbRun,
		ObjectType: activity.ObjectTypeApplication,
		ObjectID:   "production",
	})
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, sink.records, 1)

	assert.NoError(t, usersink.Hook{}.Notify(context.Background(), activity.Event{Verb: activity.VerbRun}))
}
