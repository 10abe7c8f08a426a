package domain

import (
	"strings"
	"testing"
	"time"
)

func validEvent() LogEvent {
	return LogEvent{
		Timestamp: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		TenantID:  "acme",
		UserID:    "user-1",
		Action:    "user.login",
		Status:    StatusSuccess,
		ActorIP:   "10.0.0.1",
		Message:   "login succeeded",
	}
}

func TestLogEvent_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(e *LogEvent)
		wantField string
	}{
		{"valid event", func(e *LogEvent) {}, ""},
		{"valid ipv6 actor", func(e *LogEvent) { e.ActorIP = "2001:db8::1" }, ""},
		{"missing timestamp", func(e *LogEvent) { e.Timestamp = time.Time{} }, "timestamp"},
		{"missing tenant", func(e *LogEvent) { e.TenantID = "" }, "tenantId"},
		{"tenant too long", func(e *LogEvent) { e.TenantID = strings.Repeat("a", MaxTenantIDLength+1) }, "tenantId"},
		{"tenant with invalid characters", func(e *LogEvent) { e.TenantID = "acme corp!" }, "tenantId"},
		{"missing user", func(e *LogEvent) { e.UserID = "" }, "userId"},
		{"user too long", func(e *LogEvent) { e.UserID = strings.Repeat("u", MaxUserIDLength+1) }, "userId"},
		{"missing action", func(e *LogEvent) { e.Action = "" }, "action"},
		{"action too long", func(e *LogEvent) { e.Action = strings.Repeat("x", MaxActionLength+1) }, "action"},
		{"unknown status", func(e *LogEvent) { e.Status = "MAYBE" }, "status"},
		{"missing status", func(e *LogEvent) { e.Status = "" }, "status"},
		{"invalid actor ip", func(e *LogEvent) { e.ActorIP = "not-an-ip" }, "actorIp"},
		{"missing message", func(e *LogEvent) { e.Message = "" }, "message"},
		{"message too long", func(e *LogEvent) { e.Message = strings.Repeat("m", MaxMessageLength+1) }, "message"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := validEvent()
			tc.mutate(&event)

			err := event.Validate()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			validationErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if validationErr.Field != tc.wantField {
				t.Errorf("expected error on field %q, got %q", tc.wantField, validationErr.Field)
			}
		})
	}
}

func TestLogEvent_Canonicalize(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	event := validEvent()
	event.Timestamp = time.Date(2024, 3, 1, 17, 30, 45, 123456789, loc)

	event.Canonicalize()

	want := time.Date(2024, 3, 1, 10, 30, 45, 0, time.UTC)
	if !event.Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, event.Timestamp)
	}
	if event.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", event.Timestamp.Location())
	}
}
