package alert

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"template-builder/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params)
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params)
}

func testAlert() Alert {
	return Alert{
		ID: "a-1", BuildID: "build-tpl1-1-abc123", TemplateID: "tpl-1", Status: "failed",
		ErrorKind: "FILESYSTEM_FAILURE", Message: "db down", Attempts: 5,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Tests
// ==========================

func TestSNSAlerter_Send(t *testing.T) {
	var got *sns.PublishInput
	alerter := NewSNSAlerter(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{}, nil
		},
	}, "arn:aws:sns:us-east-1:123:builds")

	require.NoError(t, alerter.Send(context.Background(), testAlert()))
	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:builds", *got.TopicArn)
	assert.LessOrEqual(t, len(*got.Subject), 100)

	var decoded Alert
	require.NoError(t, json.Unmarshal([]byte(*got.Message), &decoded))
	assert.Equal(t, "build-tpl1-1-abc123", decoded.BuildID)
	assert.Equal(t, "FILESYSTEM_FAILURE", *got.MessageAttributes["errorKind"].StringValue)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "short input untouched", input: "héllo", n: 100, want: "héllo"},
		{name: "cut inside two-byte rune", input: "aé", n: 2, want: "a"},
		{name: "cut inside three-byte rune", input: "ab€€", n: 4, want: "ab"},
		{name: "cut on boundary", input: "ab€€", n: 5, want: "ab€"},
		{name: "no room for first rune", input: "€", n: 2, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, len(got), tt.n)
		})
	}
}

func TestSNSAlerter_MultibyteSubject(t *testing.T) {
	var got *sns.PublishInput
	alerter := NewSNSAlerter(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{}, nil
		},
	}, "arn")

	a := testAlert()
	a.BuildID = strings.Repeat("ü", 60)
	require.NoError(t, alerter.Send(context.Background(), a))
	require.NotNil(t, got)
	assert.LessOrEqual(t, len(*got.Subject), 100)
	assert.True(t, utf8.ValidString(*got.Subject))
}

func TestSESAlerter_Send(t *testing.T) {
	var got *ses.SendEmailInput
	alerter := NewSESAlerter(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
			got = params
			return &ses.SendEmailOutput{}, nil
		},
	}, "builds@example.com", []string{"oncall@example.com"})

	require.NoError(t, alerter.Send(context.Background(), testAlert()))
	assert.Equal(t, "builds@example.com", *got.Source)
	assert.Equal(t, []string{"oncall@example.com"}, got.Destination.ToAddresses)
	assert.Contains(t, *got.Message.Body.Text.Data, "after 5 attempts")
}

func TestMulti_JoinsErrors(t *testing.T) {
	failing := NewSNSAlerter(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}, "arn")
	m := Multi{NewLogAlerter(logger.NewTestLogger(t)), failing}

	err := m.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	assert.NoError(t, Multi{}.Send(context.Background(), testAlert()))
}
