// internal/workers/governance/notify-activation/handler_test.go
package notifyactivation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"portfolio-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockSES struct {
	calls []*ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	calls []*sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "portfolio@example.com",
		SenderID:     "PORTFOLIO",
	}
}

func createTestHandler(t *testing.T, db *sql.DB, sesMock *mockSES, snsMock *mockSNS, config *Config) *Handler {
	if config == nil {
		config = createTestConfig()
	}
	return &Handler{
		config:    config,
		db:        db,
		logger:    logger.NewTestLogger(t),
		sesClient: sesMock,
		snsClient: snsMock,
	}
}

func createInput(canActivate bool) *Input {
	return &Input{
		UseCaseID:       "uc-001",
		UseCaseName:     "Claims triage assistant",
		OwnerID:         "owner-1",
		CanActivate:     canActivate,
		OverallProgress: 78,
		MissingFields:   []string{"Third-party model flag"},
	}
}

func expectOwnerLookup(mock sqlmock.Sqlmock, ownerID, email, phone string) {
	rows := sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone)
	mock.ExpectQuery(`SELECT email, phone FROM owners WHERE id = \$1`).
		WithArgs(ownerID).
		WillReturnRows(rows)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ActivationAnnouncement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := createTestHandler(t, db, sesMock, snsMock, nil)

	expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "+4915100000000")

	output, err := handler.Execute(context.Background(), createInput(true))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.NotEmpty(t, output.SentAt)

	require.Len(t, sesMock.calls, 1)
	assert.Contains(t, *sesMock.calls[0].Message.Subject.Data, "ready for activation")
	assert.Equal(t, "pat.owner@example.com", sesMock.calls[0].Destination.ToAddresses[0])
	assert.Equal(t, "portfolio@example.com", *sesMock.calls[0].Source)

	// Activation announcements also go out over SMS.
	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "+4915100000000", *snsMock.calls[0].PhoneNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ProgressUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := createTestHandler(t, db, sesMock, snsMock, nil)

	expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "+4915100000000")

	output, err := handler.Execute(context.Background(), createInput(false))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)

	require.Len(t, sesMock.calls, 1)
	body := *sesMock.calls[0].Message.Body.Text.Data
	assert.Contains(t, body, "78%")
	assert.Contains(t, body, "Third-party model flag")

	// Progress updates never page anyone over SMS.
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_ChannelToggles(t *testing.T) {
	t.Run("all channels disabled", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		config := createTestConfig()
		config.EmailEnabled = false
		config.SMSEnabled = false
		handler := createTestHandler(t, db, sesMock, snsMock, config)

		expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "")

		output, err := handler.Execute(context.Background(), createInput(true))

		require.NoError(t, err)
		assert.Equal(t, StatusDisabled, output.Status)
		assert.Empty(t, sesMock.calls)
		assert.Empty(t, snsMock.calls)
	})

	t.Run("owner without phone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		handler := createTestHandler(t, db, sesMock, snsMock, nil)

		expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "")

		output, err := handler.Execute(context.Background(), createInput(true))

		require.NoError(t, err)
		assert.Equal(t, StatusSent, output.Status)
		require.Len(t, sesMock.calls, 1)
		assert.Empty(t, snsMock.calls)
	})
}

// ==========================
// Failure Handling
// ==========================

func TestHandler_Execute_Failures(t *testing.T) {
	t.Run("unknown owner reports disabled, not an error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT email, phone FROM owners WHERE id = \$1`).
			WithArgs("owner-missing").
			WillReturnError(sql.ErrNoRows)

		handler := createTestHandler(t, db, &mockSES{}, &mockSNS{}, nil)

		input := createInput(true)
		input.OwnerID = "owner-missing"
		output, err := handler.Execute(context.Background(), input)

		require.NoError(t, err)
		assert.Equal(t, StatusDisabled, output.Status)
	})

	t.Run("email delivery failure throws for retry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		sesMock := &mockSES{err: errors.New("ses throttled")}
		handler := createTestHandler(t, db, sesMock, &mockSNS{}, nil)

		expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "")

		output, err := handler.Execute(context.Background(), createInput(true))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotificationSendFailed))
		assert.Nil(t, output)
	})

	t.Run("sms-only delivery failure throws for retry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		snsMock := &mockSNS{err: errors.New("sns unavailable")}
		config := createTestConfig()
		config.EmailEnabled = false
		handler := createTestHandler(t, db, &mockSES{}, snsMock, config)

		expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "+4915100000000")

		output, err := handler.Execute(context.Background(), createInput(true))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotificationSendFailed))
		assert.Nil(t, output)
	})

	t.Run("sms failure after email delivery reports failed status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		sesMock := &mockSES{}
		snsMock := &mockSNS{err: errors.New("sns unavailable")}
		handler := createTestHandler(t, db, sesMock, snsMock, nil)

		expectOwnerLookup(mock, "owner-1", "pat.owner@example.com", "+4915100000000")

		output, err := handler.Execute(context.Background(), createInput(true))

		// The email is already out; failing the job would re-send it.
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, output.Status)
		require.Len(t, sesMock.calls, 1)
	})
}
