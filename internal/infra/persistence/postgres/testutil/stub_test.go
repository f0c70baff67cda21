package testutil

import (
	"context"
	"testing"
)

const upsert = `INSERT INTO state(bucket, payload) VALUES($1, $2) ON CONFLICT(bucket) DO UPDATE SET payload = EXCLUDED.payload`

func TestStateDBCommitsAndReadsBack(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, payload := range []string{"[1]", "[2]"} {
		if _, err := tx.ExecContext(ctx, upsert, "links", []byte(payload)); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	if len(conn.Rows) != 0 {
		t.Fatalf("uncommitted rows visible: %v", conn.Rows)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var got []string
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, bucket+"="+string(payload))
	}
	if len(got) != 1 || got[0] != "links=[2]" {
		t.Fatalf("unexpected rows %v", got)
	}
}

func TestStateDBFailuresKeepCommittedRows(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	conn.Rows["links"] = []byte("[]")

	conn.FailCommit = true
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, "links", []byte("[3]")); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatalf("expected commit failure")
	}
	if string(conn.Rows["links"]) != "[]" {
		t.Fatalf("failed commit leaked rows: %s", conn.Rows["links"])
	}

	conn.FailCommit = false
	conn.FailExec = true
	if _, err := db.ExecContext(ctx, upsert, "links", []byte("[4]")); err == nil {
		t.Fatalf("expected exec failure")
	}
	conn.FailQuery = true
	if _, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`); err == nil {
		t.Fatalf("expected query failure")
	}
	if _, err := db.QueryContext(ctx, `SELECT 1`); err == nil {
		t.Fatalf("expected unsupported query error")
	}
	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailBegin = true
	if _, err := db.BeginTx(ctx, nil); err == nil {
		t.Fatalf("expected begin failure")
	}
}
