package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mira-agent/mira/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func startSession(t *testing.T, db *DB, id string) domain.Session {
	t.Helper()
	s := domain.Session{
		ID:        id,
		StartedAt: time.Now().Add(-time.Minute),
		TargetFPS: 60,
	}
	if err := db.CreateSession(s); err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}
	return s
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "sessions.db")); os.IsNotExist(err) {
		t.Error("sessions.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	db.Close()

	// Re-opening runs migrations again; must not fail.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	db.Close()
}

// ─── Session CRUD ───────────────────────────────────────────────────────────

func TestSession_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if got.ID != "sess-1" {
		t.Errorf("ID = %q, want %q", got.ID, "sess-1")
	}
	if got.TargetFPS != 60 {
		t.Errorf("TargetFPS = %d, want 60", got.TargetFPS)
	}
	if !got.EndedAt.IsZero() {
		t.Errorf("EndedAt = %v, want zero for a running session", got.EndedAt)
	}
}

func TestSession_GetMissing(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetSession("nope")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("GetSession(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestSession_Finish(t *testing.T) {
	db := newTestDB(t)
	s := startSession(t, db, "sess-1")

	s.EndedAt = time.Now()
	s.FramesRendered = 3600
	s.FramesDropped = 12
	s.AvgFrameMs = 9.5
	s.P95FrameMs = 14.2
	s.JudderScore = 0.08
	s.FinalLOD = domain.LODMedium

	if err := db.FinishSession(s); err != nil {
		t.Fatalf("FinishSession() error: %v", err)
	}

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if got.EndedAt.IsZero() {
		t.Error("EndedAt should be set after FinishSession")
	}
	if got.FramesRendered != 3600 || got.FramesDropped != 12 {
		t.Errorf("frames = %d/%d, want 3600/12", got.FramesRendered, got.FramesDropped)
	}
	if got.FinalLOD != domain.LODMedium {
		t.Errorf("FinalLOD = %v, want medium", got.FinalLOD)
	}
}

func TestSession_FinishMissing(t *testing.T) {
	db := newTestDB(t)
	err := db.FinishSession(domain.Session{ID: "nope", EndedAt: time.Now()})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("FinishSession(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestSession_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		s := domain.Session{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), TargetFPS: 60}
		if err := db.CreateSession(s); err != nil {
			t.Fatalf("CreateSession(%q) error: %v", id, err)
		}
	}

	got, err := db.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "new" || got[2].ID != "old" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestSession_ListLimit(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s := domain.Session{ID: string(rune('a' + i)), StartedAt: base.Add(time.Duration(i) * time.Minute), TargetFPS: 60}
		if err := db.CreateSession(s); err != nil {
			t.Fatalf("CreateSession error: %v", err)
		}
	}

	got, err := db.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestSession_Delete(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	if err := db.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := db.GetSession("sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("GetSession after delete error = %v, want ErrSessionNotFound", err)
	}
	if err := db.DeleteSession("sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("second DeleteSession error = %v, want ErrSessionNotFound", err)
	}
}

// ─── Stats Samples ──────────────────────────────────────────────────────────

func TestSamples_InsertAndQuery(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	base := time.Now().Add(-10 * time.Minute)
	for i := 0; i < 3; i++ {
		sample := domain.StatsSample{
			SessionID:   "sess-1",
			At:          base.Add(time.Duration(i) * time.Minute),
			FPS:         58 + float64(i),
			P95FrameMs:  12.5,
			JudderScore: 0.1,
			LOD:         domain.LODHigh,
			QueueDepth:  i,
			Throttled:   i == 2,
		}
		if err := db.InsertSample(sample); err != nil {
			t.Fatalf("InsertSample() error: %v", err)
		}
	}

	got, err := db.SamplesForSession("sess-1")
	if err != nil {
		t.Fatalf("SamplesForSession() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].FPS != 58 || got[2].FPS != 60 {
		t.Errorf("samples out of chronological order: first FPS=%v last FPS=%v", got[0].FPS, got[2].FPS)
	}
	if !got[2].Throttled {
		t.Error("last sample should be throttled")
	}
	if got[1].LOD != domain.LODHigh {
		t.Errorf("LOD = %v, want high", got[1].LOD)
	}
}

func TestSamples_EmptySession(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	got, err := db.SamplesForSession("sess-1")
	if err != nil {
		t.Fatalf("SamplesForSession() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestSamples_Prune(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	old := domain.StatsSample{SessionID: "sess-1", At: time.Now().Add(-48 * time.Hour), FPS: 60}
	fresh := domain.StatsSample{SessionID: "sess-1", At: time.Now(), FPS: 60}
	if err := db.InsertSample(old); err != nil {
		t.Fatalf("InsertSample(old) error: %v", err)
	}
	if err := db.InsertSample(fresh); err != nil {
		t.Fatalf("InsertSample(fresh) error: %v", err)
	}

	n, err := db.PruneSamples(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneSamples() error: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	got, _ := db.SamplesForSession("sess-1")
	if len(got) != 1 {
		t.Errorf("remaining samples = %d, want 1", len(got))
	}
}

func TestSamples_CascadeDelete(t *testing.T) {
	db := newTestDB(t)
	startSession(t, db, "sess-1")

	sample := domain.StatsSample{SessionID: "sess-1", At: time.Now(), FPS: 60}
	if err := db.InsertSample(sample); err != nil {
		t.Fatalf("InsertSample() error: %v", err)
	}

	if err := db.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}

	got, err := db.SamplesForSession("sess-1")
	if err != nil {
		t.Fatalf("SamplesForSession() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("samples survived cascade delete: %d", len(got))
	}
}
