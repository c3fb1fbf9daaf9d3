package checklist

import (
	"testing"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestComputeDueDates_PerRole(t *testing.T) {
	t.Parallel()

	start := date(2025, 1, 15)

	cases := []struct {
		role           template.RoleType
		wantEnd        time.Time
		wantExpiration time.Time
	}{
		{template.RoleNewEmployee, date(2025, 7, 15), date(2025, 10, 15)},
		{template.RoleManagerForNewEmployee, date(2025, 7, 15), date(2025, 10, 15)},
		{template.RoleNewManager, date(2027, 1, 15), date(2027, 4, 15)},
		{template.RoleManagerForNewManager, date(2027, 1, 15), date(2027, 4, 15)},
	}

	for _, tc := range cases {
		end, expiration := ComputeDueDates(tc.role, &start)
		if end == nil || expiration == nil {
			t.Fatalf("%s: expected due dates, got nil", tc.role)
		}
		if !end.Equal(tc.wantEnd) {
			t.Errorf("%s: end date = %v, want %v", tc.role, end, tc.wantEnd)
		}
		if !expiration.Equal(tc.wantExpiration) {
			t.Errorf("%s: expiration date = %v, want %v", tc.role, expiration, tc.wantExpiration)
		}
		if !end.Before(*expiration) {
			t.Errorf("%s: end date %v is not before expiration %v", tc.role, end, expiration)
		}
	}
}

func TestComputeDueDates_NilStartDate(t *testing.T) {
	t.Parallel()

	end, expiration := ComputeDueDates(template.RoleNewEmployee, nil)
	if end != nil || expiration != nil {
		t.Errorf("expected nil due dates without start date, got %v and %v", end, expiration)
	}
}

func TestClassifyForLocking(t *testing.T) {
	t.Parallel()

	today := date(2025, 10, 16)

	cases := []struct {
		name string
		rec  *Checklist
		want LockAction
	}{
		{"expired yesterday", &Checklist{ExpirationDate: datePtr(2025, 10, 15)}, ActionLock},
		{"expires today", &Checklist{ExpirationDate: datePtr(2025, 10, 16)}, ActionKeep},
		{"expires tomorrow", &Checklist{ExpirationDate: datePtr(2025, 10, 17)}, ActionKeep},
		{"no expiration date", &Checklist{}, ActionKeep},
		{"already locked", &Checklist{Locked: true, ExpirationDate: datePtr(2020, 1, 1)}, ActionKeep},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyForLocking(tc.rec, today); got != tc.want {
				t.Errorf("ClassifyForLocking = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyForLocking_TimeOfDayIgnored(t *testing.T) {
	t.Parallel()

	rec := &Checklist{ExpirationDate: datePtr(2025, 10, 16)}
	lateInTheDay := time.Date(2025, 10, 16, 23, 59, 0, 0, time.UTC)

	if got := ClassifyForLocking(rec, lateInTheDay); got != ActionKeep {
		t.Errorf("record expiring today must not lock, got %s", got)
	}
}

func TestClassifyForNotification(t *testing.T) {
	t.Parallel()

	email := []CommunicationChannel{ChannelEmail}
	optedOut := []CommunicationChannel{ChannelNoCommunication}

	cases := []struct {
		name     string
		rec      *Checklist
		channels []CommunicationChannel
		want     NotificationDecision
	}{
		{"never notified", &Checklist{}, email, DecisionSend},
		{"retry after not sent", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceNotSent}}, email, DecisionSend},
		{"already sent", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceSent}}, email, DecisionSkipAlreadyHandled},
		{"organization opted out", &Checklist{}, optedOut, DecisionSkipOptedOut},
		{"empty channel set", &Checklist{}, nil, DecisionSkipOptedOut},
		{"sent wins over opt out", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceSent}}, optedOut, DecisionSkipAlreadyHandled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyForNotification(tc.rec, tc.channels); got != tc.want {
				t.Errorf("ClassifyForNotification = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEligibleForNotificationRetry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rec  *Checklist
		want bool
	}{
		{"no correspondence", &Checklist{}, true},
		{"not sent", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceNotSent}}, true},
		{"sent", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceSent}}, false},
		{"error is terminal", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceError}}, false},
		{"will not send", &Checklist{Correspondence: &Correspondence{Status: CorrespondenceWillNotSend}}, false},
	}

	for _, tc := range cases {
		if got := EligibleForNotificationRetry(tc.rec); got != tc.want {
			t.Errorf("%s: EligibleForNotificationRetry = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestIsValidChannelSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		channels []CommunicationChannel
		want     bool
	}{
		{"email only", []CommunicationChannel{ChannelEmail}, true},
		{"no communication only", []CommunicationChannel{ChannelNoCommunication}, true},
		{"empty", nil, false},
		{"no communication mixed with email", []CommunicationChannel{ChannelEmail, ChannelNoCommunication}, false},
	}

	for _, tc := range cases {
		if got := IsValidChannelSelection(tc.channels); got != tc.want {
			t.Errorf("%s: IsValidChannelSelection = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestOptOutCorrespondence(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := &Checklist{
		Manager: &ManagerRef{Email: "manager@example.com"},
		Correspondence: &Correspondence{
			Status:    CorrespondenceNotSent,
			Recipient: "former-manager@example.com",
			Attempts:  3,
		},
	}

	corr := OptOutCorrespondence(rec, now)
	if corr.Status != CorrespondenceWillNotSend {
		t.Errorf("status = %s, want WILL_NOT_SEND", corr.Status)
	}
	if corr.Recipient != "manager@example.com" {
		t.Errorf("recipient = %q, want current manager address", corr.Recipient)
	}
	if corr.Attempts != 3 {
		t.Errorf("attempts = %d, want carried over 3", corr.Attempts)
	}
	if !corr.ModifiedAt.Equal(now) {
		t.Errorf("modified at = %v, want %v", corr.ModifiedAt, now)
	}
}

func TestOptOutCorrespondence_NoHistory(t *testing.T) {
	t.Parallel()

	corr := OptOutCorrespondence(&Checklist{}, time.Now())
	if corr.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", corr.Attempts)
	}
	if corr.Recipient != "" {
		t.Errorf("recipient = %q, want empty without manager", corr.Recipient)
	}
}
