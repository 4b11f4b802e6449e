package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/notify/pkg/dispatch"
	"github.com/clinicbook/notify/pkg/history"
	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/notification"
	"github.com/clinicbook/notify/pkg/template"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) GetByID(ctx context.Context, id uuid.UUID) (*dispatch.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*dispatch.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	templates  *template.MemoryStorage
	directory  *mockDirectory
	feed       *notification.Manager
	feedStore  *notification.MemoryStorage
	queue      *mailqueue.MemoryStorage
	ledger     *history.MemoryStorage
	dispatcher *dispatch.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		templates: template.NewMemoryStorage(),
		directory: &mockDirectory{},
		feedStore: notification.NewMemoryStorage(),
		queue:     mailqueue.NewMemoryStorage(),
		ledger:    history.NewMemoryStorage(),
	}
	f.feed = notification.NewManager(f.feedStore)
	f.dispatcher = dispatch.NewDispatcher(f.templates, f.directory, f.feed, f.queue, f.ledger)
	return f
}

func (f *fixture) addTemplate(t *testing.T, tpl *template.Template) {
	t.Helper()
	require.NoError(t, f.templates.Create(context.Background(), tpl))
}

func (f *fixture) knownUser(id uuid.UUID, email string) {
	f.directory.On("GetByID", mock.Anything, id).Return(&dispatch.User{
		ID:    id,
		Email: email,
		Name:  "Test User",
	}, nil)
}

func TestDispatcher_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("full dispatch writes feed, queue and ledger", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "NEW_APPOINTMENT",
			Subject:       "New appointment with {PatientName}",
			Body:          "{PatientName} booked for {AppointmentDate}",
			EmailBody:     "<p>{PatientName} booked for {AppointmentDate}</p>",
			Priority:      template.PriorityHigh,
			Role:          template.RoleDoctor,
			RequiresEmail: true,
			RequiresInApp: true,
			Active:        true,
		})

		doctorID := uuid.New()
		apptID := uuid.New()
		f.knownUser(doctorID, "doctor@example.com")

		ok := f.dispatcher.Send(ctx, "NEW_APPOINTMENT", doctorID, template.Params{
			"PatientName":               "Alice",
			"AppointmentDate":           "Mon, 02 Mar 2026 at 10:00",
			dispatch.ParamAppointmentID: apptID,
		})
		require.True(t, ok)

		feed, err := f.feedStore.List(ctx, doctorID, notification.ListOptions{})
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, "New appointment with Alice", feed[0].Title)
		assert.Equal(t, "Alice booked for Mon, 02 Mar 2026 at 10:00", feed[0].Message)
		assert.Equal(t, string(template.PriorityHigh), feed[0].Priority)
		require.NotNil(t, feed[0].AppointmentID)
		assert.Equal(t, apptID, *feed[0].AppointmentID)

		jobs, err := f.queue.GetPending(ctx, time.Now(), 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "doctor@example.com", jobs[0].Email)
		assert.Equal(t, "New appointment with Alice", jobs[0].Subject)
		assert.Equal(t, "Alice booked for Mon, 02 Mar 2026 at 10:00", jobs[0].Body)
		assert.Contains(t, jobs[0].EmailBody, "<p>Alice booked")
		assert.Equal(t, template.PriorityHigh, jobs[0].Priority)
		assert.Equal(t, "Alice", jobs[0].Metadata["PatientName"])

		entries, err := f.ledger.List(ctx, history.ListOptions{UserID: doctorID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, history.MethodBoth, entries[0].Method)
		assert.Equal(t, history.StatusSent, entries[0].Status)
		assert.Contains(t, entries[0].EmailBody, "<p>Alice booked")
		assert.Empty(t, entries[0].ErrorMessage)
	})

	t.Run("unknown type returns false without side effects", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()

		ok := f.dispatcher.Send(ctx, "NO_SUCH_TYPE", userID, nil)
		assert.False(t, ok)

		entries, err := f.ledger.List(ctx, history.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, entries)
		f.directory.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("inactive template counts as missing", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "WELCOME",
			RequiresInApp: true,
			Active:        true,
		})
		require.NoError(t, f.templates.SetActive(ctx, "WELCOME", false))

		ok := f.dispatcher.Send(ctx, "WELCOME", uuid.New(), nil)
		assert.False(t, ok)
	})

	t.Run("unknown user returns false", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "WELCOME",
			RequiresInApp: true,
			Active:        true,
		})
		userID := uuid.New()
		f.directory.On("GetByID", mock.Anything, userID).Return(nil, dispatch.ErrUserNotFound)

		ok := f.dispatcher.Send(ctx, "WELCOME", userID, nil)
		assert.False(t, ok)
	})

	t.Run("email-only template skips the feed", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "PAYMENT_CONFIRMED",
			Subject:       "Payment of {Amount} received",
			EmailBody:     "<p>{Amount}</p>",
			RequiresEmail: true,
			Active:        true,
		})
		userID := uuid.New()
		f.knownUser(userID, "patient@example.com")

		ok := f.dispatcher.Send(ctx, "PAYMENT_CONFIRMED", userID, template.Params{"Amount": "$50"})
		require.True(t, ok)

		feed, err := f.feedStore.List(ctx, userID, notification.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, feed)

		entries, err := f.ledger.List(ctx, history.ListOptions{UserID: userID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, history.MethodEmail, entries[0].Method)
		assert.Equal(t, history.StatusSent, entries[0].Status)
	})

	t.Run("no deliverable channel records a failed ledger entry", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "PAYMENT_CONFIRMED",
			Subject:       "Payment received",
			EmailBody:     "<p>Thanks</p>",
			RequiresEmail: true,
			Active:        true,
		})
		userID := uuid.New()
		f.knownUser(userID, "")

		ok := f.dispatcher.Send(ctx, "PAYMENT_CONFIRMED", userID, nil)
		assert.False(t, ok)

		entries, err := f.ledger.List(ctx, history.ListOptions{UserID: userID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, history.MethodEmail, entries[0].Method)
		assert.Equal(t, history.StatusFailed, entries[0].Status)
		assert.NotEmpty(t, entries[0].ErrorMessage)
	})

	t.Run("missing email address skips the queue but not the feed", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "WELCOME",
			Subject:       "Welcome",
			Body:          "Welcome to {ClinicName}",
			RequiresEmail: true,
			RequiresInApp: true,
			Active:        true,
		})
		userID := uuid.New()
		f.knownUser(userID, "")

		ok := f.dispatcher.Send(ctx, "WELCOME", userID, template.Params{"ClinicName": "Acme"})
		require.True(t, ok)

		jobs, err := f.queue.List(ctx, "", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, jobs)

		entries, err := f.ledger.List(ctx, history.ListOptions{UserID: userID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, history.MethodInApp, entries[0].Method)
	})

	t.Run("missing params render verbatim without failing", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "WELCOME",
			Subject:       "Welcome {UserName}",
			Body:          "Glad to have you at {ClinicName}",
			RequiresInApp: true,
			Active:        true,
		})
		userID := uuid.New()
		f.knownUser(userID, "")

		ok := f.dispatcher.Send(ctx, "WELCOME", userID, template.Params{"UserName": "Dana"})
		require.True(t, ok)

		feed, err := f.feedStore.List(ctx, userID, notification.ListOptions{})
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, "Welcome Dana", feed[0].Title)
		assert.Equal(t, "Glad to have you at {ClinicName}", feed[0].Message)
	})

	t.Run("priority override applies to feed and queue", func(t *testing.T) {
		f := newFixture(t)
		f.addTemplate(t, &template.Template{
			Type:          "APPOINTMENT_REMINDER",
			Subject:       "Reminder",
			Body:          "Reminder",
			EmailBody:     "<p>Reminder</p>",
			Priority:      template.PriorityNormal,
			RequiresEmail: true,
			RequiresInApp: true,
			Active:        true,
		})
		userID := uuid.New()
		f.knownUser(userID, "patient@example.com")

		ok := f.dispatcher.Send(ctx, "APPOINTMENT_REMINDER", userID, nil,
			dispatch.WithPriority(template.PriorityUrgent))
		require.True(t, ok)

		jobs, err := f.queue.GetPending(ctx, time.Now(), 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, template.PriorityUrgent, jobs[0].Priority)
	})
}

func TestDispatcher_Schedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTemplate(t, &template.Template{
		Type:          "APPOINTMENT_REMINDER",
		Subject:       "Reminder",
		EmailBody:     "<p>Reminder</p>",
		RequiresEmail: true,
		Active:        true,
	})
	userID := uuid.New()
	f.knownUser(userID, "patient@example.com")

	at := time.Now().Add(2 * time.Hour)
	ok := f.dispatcher.Schedule(ctx, userID, "APPOINTMENT_REMINDER", at, nil)
	require.True(t, ok)

	// Not due yet.
	jobs, err := f.queue.GetPending(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = f.queue.GetPending(ctx, at.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.WithinDuration(t, at, jobs[0].ScheduledAt, time.Second)
}

func TestDispatcher_SendBulk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addTemplate(t, &template.Template{
		Type:          "MEMBERSHIP_EXPIRING",
		Subject:       "Plan expiring",
		Body:          "Your {PlanName} plan expires soon",
		RequiresInApp: true,
		Active:        true,
	})

	good := uuid.New()
	bad := uuid.New()
	f.knownUser(good, "")
	f.directory.On("GetByID", mock.Anything, bad).Return(nil, dispatch.ErrUserNotFound)

	ok := f.dispatcher.SendBulk(ctx, "MEMBERSHIP_EXPIRING", []uuid.UUID{good, bad},
		template.Params{"PlanName": "Gold"})
	assert.False(t, ok, "one failed recipient fails the bulk result")

	feed, err := f.feedStore.List(ctx, good, notification.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, feed, 1, "successful recipients still receive")
}

func TestDispatcher_DomainWrappers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, template.Seed(ctx, f.templates))

	appt := dispatch.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		PatientName: "Alice",
		DoctorName:  "Dr. Lee",
		DateDisplay: "Mon, 02 Mar 2026 at 10:00",
	}
	f.knownUser(appt.PatientID, "alice@example.com")
	f.knownUser(appt.DoctorID, "lee@example.com")

	t.Run("cancellation notifies both parties", func(t *testing.T) {
		ok := f.dispatcher.AppointmentCancelled(ctx, appt)
		require.True(t, ok)

		patientFeed, err := f.feedStore.List(ctx, appt.PatientID, notification.ListOptions{
			Type: template.TypeAppointmentCancelled,
		})
		require.NoError(t, err)
		assert.Len(t, patientFeed, 1)

		doctorFeed, err := f.feedStore.List(ctx, appt.DoctorID, notification.ListOptions{
			Type: template.TypeAppointmentCancelledDoc,
		})
		require.NoError(t, err)
		assert.Len(t, doctorFeed, 1)
	})

	t.Run("reminders go out at high priority", func(t *testing.T) {
		ok := f.dispatcher.AppointmentReminder(ctx, appt)
		require.True(t, ok)

		// The patient reminder also goes out by email; the doctor one is
		// in-app only per the catalog.
		jobs, err := f.queue.GetPending(ctx, time.Now(), 50)
		require.NoError(t, err)

		var reminderJobs int
		for _, job := range jobs {
			if job.Type == template.TypeAppointmentReminder {
				assert.Equal(t, template.PriorityHigh, job.Priority)
				reminderJobs++
			}
		}
		assert.Equal(t, 1, reminderJobs)

		doctorFeed, err := f.feedStore.List(ctx, appt.DoctorID, notification.ListOptions{
			Type: template.TypeAppointmentReminderDoctor,
		})
		require.NoError(t, err)
		assert.Len(t, doctorFeed, 1)
	})
}
