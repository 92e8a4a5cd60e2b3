package scheduler

import (
	"testing"
	"time"

	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A second pooled connection to :memory: would see an empty database,
	// and the timer loop runs on its own goroutine.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Message{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// createScheduled inserts an in-app message in scheduled state with the
// given scheduled time, bypassing the constructor's future check.
func createScheduled(t *testing.T, db *gorm.DB, at time.Time) *models.Message {
	t.Helper()
	future := time.Now().Add(time.Hour)
	msg, err := models.NewMessage("Due call", "body", models.ChannelInApp, []string{"alice"}, &future)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	msg.ScheduledAt = &at
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
	return msg
}

func status(t *testing.T, db *gorm.DB, id string) string {
	t.Helper()
	var msg models.Message
	if err := db.Where("id = ?", id).First(&msg).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	return msg.Status
}

// --- Tick ---

func TestTick_SendsDueMessages(t *testing.T) {
	db := openTestDB(t)
	due := createScheduled(t, db, time.Now().Add(-time.Minute))

	s := &Scheduler{DB: db}
	if err := s.Tick(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := status(t, db, due.ID); got != models.StatusSent {
		t.Errorf("status = %q, want sent", got)
	}

	// The scheduler audits as the system actor.
	var entry models.ActivityLog
	if err := db.Where("actor = ?", SystemActor).First(&entry).Error; err != nil {
		t.Errorf("no audit entry for system actor: %v", err)
	}
}

func TestTick_LeavesFutureMessages(t *testing.T) {
	db := openTestDB(t)
	future := createScheduled(t, db, time.Now().Add(time.Hour))

	s := &Scheduler{DB: db}
	if err := s.Tick(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := status(t, db, future.ID); got != models.StatusScheduled {
		t.Errorf("status = %q, want scheduled", got)
	}
}

func TestTick_IgnoresDraftsAndTerminal(t *testing.T) {
	db := openTestDB(t)
	draft, err := models.NewMessage("Draft", "body", models.ChannelInApp, []string{"alice"}, nil)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if err := db.Create(draft).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	s := &Scheduler{DB: db}
	if err := s.Tick(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := status(t, db, draft.ID); got != models.StatusDraft {
		t.Errorf("status = %q, want draft untouched", got)
	}
}

// One message failing to resolve must not stop the rest of the batch.
func TestTick_FailureOnOneMessageDoesNotStopOthers(t *testing.T) {
	db := openTestDB(t)

	group := models.Group{Name: "broken", Filters: "{not json", IsActive: true}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	bad := createScheduled(t, db, time.Now().Add(-2*time.Minute))
	db.Model(&models.Message{}).Where("id = ?", bad.ID).Update("target_group_id", group.ID)
	good := createScheduled(t, db, time.Now().Add(-time.Minute))

	s := &Scheduler{DB: db}
	if err := s.Tick(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := status(t, db, bad.ID); got != models.StatusFailed {
		t.Errorf("bad message status = %q, want failed", got)
	}
	if got := status(t, db, good.ID); got != models.StatusSent {
		t.Errorf("good message status = %q, want sent", got)
	}
}

// --- Start/Stop ---

func TestStartStop(t *testing.T) {
	db := openTestDB(t)
	due := createScheduled(t, db, time.Now().Add(-time.Minute))

	s := &Scheduler{DB: db, Period: 10 * time.Millisecond}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status(t, db, due.ID) == models.StatusSent {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("due message was not dispatched by the running scheduler")
}

func TestStart_TwiceReplacesTimer(t *testing.T) {
	db := openTestDB(t)

	s := &Scheduler{DB: db, Period: 10 * time.Millisecond}
	s.Start()
	s.Start() // must replace, not stack
	s.Stop()
	s.Stop() // idempotent
}

func TestStop_BeforeStartIsNoop(t *testing.T) {
	s := &Scheduler{DB: openTestDB(t)}
	s.Stop()
}

// --- interval selection ---

func TestNextWait(t *testing.T) {
	s := &Scheduler{Period: 5 * time.Second}
	if got := s.nextWait(); got != 5*time.Second {
		t.Errorf("nextWait = %v", got)
	}

	s = &Scheduler{}
	if got := s.nextWait(); got != defaultPeriod {
		t.Errorf("nextWait = %v, want default", got)
	}

	s = &Scheduler{Cron: "*/5 * * * *", Period: time.Second}
	if got := s.nextWait(); got <= 0 || got > 5*time.Minute {
		t.Errorf("cron nextWait = %v, want within 5m", got)
	}

	s = &Scheduler{Cron: "not a cron", Period: time.Second}
	if got := s.nextWait(); got != time.Second {
		t.Errorf("invalid cron should fall back to period, got %v", got)
	}
}
