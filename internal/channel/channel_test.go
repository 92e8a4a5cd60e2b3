package channel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeTransport records calls and optionally fails.
type fakeTransport struct {
	calls   int
	to      []string
	subject string
	body    string
	err     error
}

func (f *fakeTransport) Send(to []string, subject, htmlBody string) error {
	f.calls++
	f.to = to
	f.subject = subject
	f.body = htmlBody
	return f.err
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func testMessage() *models.Message {
	return &models.Message{ID: "m1", Title: "Track closure", Body: "<p>Track 3 closed</p>", Channel: models.ChannelEmail}
}

// --- ForChannel ---

func TestForChannel(t *testing.T) {
	if _, err := ForChannel("telegraph", nil); err == nil {
		t.Error("expected error for unknown channel")
	}
	d, err := ForChannel(models.ChannelEmail, &fakeTransport{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.(*EmailDispatcher); !ok {
		t.Errorf("dispatcher = %T", d)
	}
	for _, ch := range []string{models.ChannelInApp, models.ChannelSMS} {
		d, err := ForChannel(ch, nil)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", ch, err)
		}
		if _, ok := d.(*SinkDispatcher); !ok {
			t.Errorf("dispatcher for %s = %T", ch, d)
		}
	}
}

// --- Email dispatch ---

func TestEmailDispatch_SendsToResolvedAddresses(t *testing.T) {
	db := openTestDB(t)
	db.Create(&models.User{Username: "alice", Email: "alice@example.com"})
	db.Create(&models.User{Username: "bob", Email: "bob@example.com"})

	ft := &fakeTransport{}
	d := &EmailDispatcher{Transport: ft}
	out := d.Dispatch(db, testMessage(), []string{"alice", "bob"})

	if out.Error != "" {
		t.Fatalf("unexpected outcome error: %s", out.Error)
	}
	if ft.calls != 1 {
		t.Fatalf("transport calls = %d, want 1", ft.calls)
	}
	if !reflect.DeepEqual(ft.to, []string{"alice@example.com", "bob@example.com"}) {
		t.Errorf("to = %v", ft.to)
	}
	if ft.subject != "Track closure" {
		t.Errorf("subject = %q", ft.subject)
	}
	if out.Recipients != 2 || out.Delivered != 2 {
		t.Errorf("outcome = %+v", out)
	}
}

// Recipients reflects the resolved audience size even when some members
// have no address to deliver to.
func TestEmailDispatch_CountsAudienceNotAddresses(t *testing.T) {
	db := openTestDB(t)
	db.Create(&models.User{Username: "alice", Email: "alice@example.com"})
	db.Create(&models.User{Username: "bob", Email: ""})

	ft := &fakeTransport{}
	d := &EmailDispatcher{Transport: ft}
	out := d.Dispatch(db, testMessage(), []string{"alice", "bob"})

	if !reflect.DeepEqual(ft.to, []string{"alice@example.com"}) {
		t.Errorf("to = %v, want only alice", ft.to)
	}
	if out.Recipients != 2 {
		t.Errorf("recipients = %d, want 2 (resolved audience size)", out.Recipients)
	}
	if out.Delivered != 1 {
		t.Errorf("delivered = %d, want 1", out.Delivered)
	}
}

func TestEmailDispatch_NoAddressesSkipsTransport(t *testing.T) {
	db := openTestDB(t)

	ft := &fakeTransport{}
	d := &EmailDispatcher{Transport: ft}
	out := d.Dispatch(db, testMessage(), []string{"ghost"})

	if ft.calls != 0 {
		t.Errorf("transport calls = %d, want 0", ft.calls)
	}
	if out.Error != "" || out.Recipients != 1 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestEmailDispatch_TransportFailureRecordedNotReturned(t *testing.T) {
	db := openTestDB(t)
	db.Create(&models.User{Username: "alice", Email: "alice@example.com"})

	ft := &fakeTransport{err: errors.New("relay unreachable")}
	d := &EmailDispatcher{Transport: ft}
	out := d.Dispatch(db, testMessage(), []string{"alice"})

	if out.Error == "" {
		t.Fatal("expected outcome error")
	}
	if out.Recipients != 1 {
		t.Errorf("recipients = %d, want 1", out.Recipients)
	}
	if out.Delivered != 0 {
		t.Errorf("delivered = %d, want 0", out.Delivered)
	}
}

func TestEmailDispatch_NilTransportRecordedAsError(t *testing.T) {
	db := openTestDB(t)
	db.Create(&models.User{Username: "alice", Email: "alice@example.com"})

	d := &EmailDispatcher{}
	out := d.Dispatch(db, testMessage(), []string{"alice"})
	if out.Error == "" {
		t.Error("expected outcome error when no transport is configured")
	}
}

// --- Sink channels ---

func TestSinkDispatch_RecordsAudienceSize(t *testing.T) {
	d := &SinkDispatcher{Channel: models.ChannelInApp}
	out := d.Dispatch(nil, testMessage(), []string{"alice", "bob", "carol"})
	if out.Recipients != 3 || out.Error != "" || out.Delivered != 0 {
		t.Errorf("outcome = %+v", out)
	}
	if out.Channel != models.ChannelInApp {
		t.Errorf("channel = %q", out.Channel)
	}
}
