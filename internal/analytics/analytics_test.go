package analytics

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/testifyhub/testifyhub/internal/db"
	"github.com/testifyhub/testifyhub/internal/rbac"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func insertUser(t *testing.T, dbh *sql.DB, role string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := dbh.Exec(
		`INSERT INTO users (id,name,email,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, "user "+id[:8], id[:8]+"@example.com", "x", role, time.Now().Unix())
	if err != nil {
		t.Fatalf("user fixture: %v", err)
	}
	return id
}

func insertTest(t *testing.T, dbh *sql.DB, ownerID string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := dbh.Exec(
		`INSERT INTO tests (id,title,subject,duration_min,created_by,total_marks,is_active,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, "T "+id[:8], "S", 10, ownerID, 10, true, time.Now().Unix())
	if err != nil {
		t.Fatalf("test fixture: %v", err)
	}
	return id
}

func insertResult(t *testing.T, dbh *sql.DB, userID, testID string, percentage float64) {
	t.Helper()
	_, err := dbh.Exec(
		`INSERT INTO results (id,user_id,test_id,answers_json,score,total_marks,percentage,time_taken_min,status,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		uuid.NewString(), userID, testID, "[]", 0, 10, percentage, 5, "Completed", time.Now().Unix())
	if err != nil {
		t.Fatalf("result fixture: %v", err)
	}
}

func TestOverviewEmptyDataset(t *testing.T) {
	dbh := newTestDB(t)
	agg := NewAggregator(dbh)

	out := agg.Overview(context.Background(), "", 0)
	if out.TotalTests != 0 || out.TotalResults != 0 || out.AveragePercentage != 0 ||
		out.PassCount != 0 || out.FailCount != 0 {
		t.Errorf("empty dataset should zero every counter: %+v", out)
	}
	if out.PassThreshold != DefaultPassThreshold {
		t.Errorf("threshold = %v, want default %v", out.PassThreshold, DefaultPassThreshold)
	}
}

func TestOverviewRollup(t *testing.T) {
	dbh := newTestDB(t)
	agg := NewAggregator(dbh)
	ctx := context.Background()

	owner := insertUser(t, dbh, rbac.RoleEducator)
	testID := insertTest(t, dbh, owner)
	for _, pct := range []float64{100, 50, 40} {
		student := insertUser(t, dbh, rbac.RoleStudent)
		insertResult(t, dbh, student, testID, pct)
	}

	out := agg.Overview(ctx, "", DefaultPassThreshold)
	if out.TotalTests != 1 || out.TotalResults != 3 {
		t.Errorf("counts: %+v", out)
	}
	if out.AveragePercentage != 63.33 {
		t.Errorf("average = %v, want 63.33", out.AveragePercentage)
	}
	// A percentage exactly at the threshold counts as a pass.
	if out.PassCount != 2 || out.FailCount != 1 {
		t.Errorf("pass/fail = %d/%d, want 2/1", out.PassCount, out.FailCount)
	}

	// A stricter threshold reclassifies the boundary result.
	out = agg.Overview(ctx, "", 60)
	if out.PassCount != 1 || out.FailCount != 2 {
		t.Errorf("pass/fail at 60 = %d/%d, want 1/2", out.PassCount, out.FailCount)
	}
	if out.PassThreshold != 60 {
		t.Errorf("threshold = %v, want 60", out.PassThreshold)
	}
}

func TestOverviewEducatorScoping(t *testing.T) {
	dbh := newTestDB(t)
	agg := NewAggregator(dbh)
	ctx := context.Background()

	alice := insertUser(t, dbh, rbac.RoleEducator)
	bob := insertUser(t, dbh, rbac.RoleEducator)
	aliceTest := insertTest(t, dbh, alice)
	bobTest := insertTest(t, dbh, bob)

	s1 := insertUser(t, dbh, rbac.RoleStudent)
	s2 := insertUser(t, dbh, rbac.RoleStudent)
	insertResult(t, dbh, s1, aliceTest, 80)
	insertResult(t, dbh, s2, aliceTest, 20)
	insertResult(t, dbh, s1, bobTest, 100)

	scoped := agg.Overview(ctx, alice, DefaultPassThreshold)
	if scoped.TotalTests != 1 || scoped.TotalResults != 2 {
		t.Errorf("alice scope counts: %+v", scoped)
	}
	if scoped.AveragePercentage != 50 || scoped.PassCount != 1 || scoped.FailCount != 1 {
		t.Errorf("alice scope rollup: %+v", scoped)
	}

	all := agg.Overview(ctx, "", DefaultPassThreshold)
	if all.TotalTests != 2 || all.TotalResults != 3 {
		t.Errorf("admin scope counts: %+v", all)
	}
}
