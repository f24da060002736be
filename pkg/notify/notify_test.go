package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

var sample = model.Notification{
	Kind:        model.NotifyTimesheetApproved,
	VolunteerID: "vol-1",
	EventID:     "event-1",
	Subject:     "Timesheet approved",
	Message:     "Your timesheet for Food bank (3.00 hours) has been approved.",
	OccurredAt:  time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
}

type recording struct {
	mu   sync.Mutex
	seen []string
}

func (r *recording) Notify(_ context.Context, n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n.Kind)
}

func TestMulti(t *testing.T) {
	a, b := &recording{}, &recording{}
	Multi{a, b}.Notify(context.Background(), sample)

	assert.Equal(t, []string{model.NotifyTimesheetApproved}, a.seen)
	assert.Equal(t, []string{model.NotifyTimesheetApproved}, b.seen)
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewLog(zap.New(core)).Notify(context.Background(), sample)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Notification", entry.Message)
	assert.Equal(t, model.NotifyTimesheetApproved, entry.ContextMap()["kind"])
	assert.Equal(t, "vol-1", entry.ContextMap()["volunteer_id"])
}

func TestEncode(t *testing.T) {
	payload, err := encode(sample)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "timesheet.approved", decoded["kind"])
	assert.Equal(t, "event-1", decoded["event_id"])
	assert.Equal(t, "2025-03-12T09:00:00Z", decoded["occurred_at"])

	payload, err = encode(model.Notification{Kind: model.NotifyCapacityExceeded})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "volunteer_id")
}

// fakeRedis records LPUSH calls; every other command panics via the nil embed
type fakeRedis struct {
	redis.Cmdable
	key    string
	values []interface{}
	err    error
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = values
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisQueue(t *testing.T) {
	fake := &fakeRedis{}
	NewRedisQueue(fake, "", zap.NewNop()).Notify(context.Background(), sample)

	assert.Equal(t, DefaultRedisQueue, fake.key)
	require.Len(t, fake.values, 1)
	payload, ok := fake.values[0].([]byte)
	require.True(t, ok)
	assert.Contains(t, string(payload), `"kind":"timesheet.approved"`)
}

func TestRedisQueue_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fake := &fakeRedis{err: errors.New("connection refused")}

	NewRedisQueue(fake, "custom", zap.New(core)).Notify(context.Background(), sample)

	assert.Equal(t, "custom", fake.key)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to queue notification", logs.All()[0].Message)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafka(t *testing.T) {
	writer := &fakeWriter{}
	k := &Kafka{writer: writer, topic: "vms.notifications", logger: zap.NewNop(), timeout: time.Second}

	k.Notify(context.Background(), sample)

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "vms.notifications", msg.Topic)
	assert.Equal(t, []byte("vol-1"), msg.Key)
	assert.Equal(t, sample.OccurredAt, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "kind", Value: []byte(model.NotifyTimesheetApproved)}}, msg.Headers)
}

func TestKafka_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	k := &Kafka{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "t", logger: zap.New(core), timeout: time.Second}

	k.Notify(context.Background(), sample)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to publish notification", logs.All()[0].Message)
}

func TestNewKafka_RequiresBrokers(t *testing.T) {
	_, err := NewKafka(nil, "t", zap.NewNop())
	assert.Error(t, err)
}

type sentEmail struct {
	to, subject, body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return f.err
}

type fakeFinder map[string]model.Volunteer

func (f fakeFinder) FindVolunteer(_ context.Context, id string) (*model.Volunteer, error) {
	v, ok := f[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &v, nil
}

func TestEmail(t *testing.T) {
	sender := &fakeSender{}
	finder := fakeFinder{"vol-1": {ID: "vol-1", Email: "ada@example.org"}}
	e := NewEmail(sender, finder, "coordinator@example.org", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	e.Notify(ctx, sample)
	// Delivery does not depend on the caller's context staying alive
	cancel()

	unknown := sample
	unknown.VolunteerID = "vol-2"
	e.Notify(context.Background(), unknown)

	event := model.Notification{Kind: model.NotifyCapacityExceeded, Subject: "Event full", Message: "No slots left"}
	e.Notify(context.Background(), event)

	e.Wait()

	var recipients []string
	for _, s := range sender.sent {
		recipients = append(recipients, s.to)
	}
	assert.ElementsMatch(t, []string{"ada@example.org", "coordinator@example.org", "coordinator@example.org"}, recipients)
}

func TestEmail_NoRecipient(t *testing.T) {
	sender := &fakeSender{}
	e := NewEmail(sender, fakeFinder{}, "", zap.NewNop())

	e.Notify(context.Background(), model.Notification{Kind: model.NotifyCapacityExceeded})
	e.Wait()

	assert.Empty(t, sender.sent)
}
