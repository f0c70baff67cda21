package integration

import (
	"context"
	"corpgraph/internal/blob"
	"corpgraph/internal/core"
	"corpgraph/internal/infra/persistence/blobstate"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/internal/infra/persistence/sqlite"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type medium struct {
	name    string
	durable bool
	// open returns a store over the same backing medium on every call.
	open func(t *testing.T) core.PersistentStore
}

func media(t *testing.T) []medium {
	t.Helper()
	blobMedium := func(name string, bs blob.Store) medium {
		return medium{name: name, durable: true, open: func(t *testing.T) core.PersistentStore {
			s, err := blobstate.NewStore(context.Background(), bs, blobstate.DefaultKey, core.NewDefaultRulesEngine(nil))
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			return s
		}}
	}
	fsBlobs, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem blob: %v", err)
	}
	sqlitePath := filepath.Join(t.TempDir(), "corpgraph.db")
	return []medium{
		{name: "memory", open: func(*testing.T) core.PersistentStore {
			return memory.NewStore(core.NewDefaultRulesEngine(nil))
		}},
		{name: "sqlite", durable: true, open: func(t *testing.T) core.PersistentStore {
			s, err := sqlite.NewStore(sqlitePath, core.NewDefaultRulesEngine(nil))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
		blobMedium("blob-memory", blob.NewMemory()),
		blobMedium("blob-fs", fsBlobs),
		blobMedium("blob-s3-mock", blob.NewMockS3ForTests()),
	}
}

// TestIntegrationSmoke runs one write/read cycle through the facade on every
// medium and reopens the durable ones.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()
	for _, m := range media(t) {
		t.Run(m.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics, err := core.NewPrometheusMetrics(reg)
			if err != nil {
				t.Fatalf("metrics: %v", err)
			}
			store := m.open(t)
			svc := core.NewService(store, core.WithMetrics(metrics))

			biz, _, err := svc.AddBusiness(ctx, "")
			if err != nil {
				t.Fatalf("add business: %v", err)
			}
			emp, _, err := svc.AddEmployee(ctx, "", 25, testTime)
			if err != nil {
				t.Fatalf("add employee: %v", err)
			}
			snap, err := svc.LinkBusinessEmployee(ctx, biz.ID, emp.ID)
			if err != nil {
				t.Fatalf("link: %v", err)
			}
			if snap.Version != 4 {
				t.Fatalf("expected version 4 after three writes, got %d", snap.Version)
			}
			if biz.Name != "Apple" || emp.Name != "Chris" {
				t.Fatalf("defaults not applied: %q %q", biz.Name, emp.Name)
			}

			families, err := reg.Gather()
			if err != nil {
				t.Fatalf("gather: %v", err)
			}
			if len(families) == 0 {
				t.Fatalf("expected metrics to be recorded")
			}

			if !m.durable {
				return
			}
			if err := store.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			reopened := core.NewService(m.open(t))
			defer func() { _ = reopened.Store().Close() }()
			employees := reopened.ListEmployees()
			if len(employees) != 1 || employees[0].ID != emp.ID {
				t.Fatalf("employee not restored: %+v", employees)
			}
			if employees[0].BusinessID == nil || *employees[0].BusinessID != biz.ID {
				t.Fatalf("business pointer not restored: %+v", employees[0])
			}
			if !employees[0].DateJoined.Equal(testTime) {
				t.Fatalf("date joined not restored: %v", employees[0].DateJoined)
			}
			businesses := reopened.ListBusinesses()
			if len(businesses) != 1 || len(businesses[0].EmployeeIDs) != 1 || businesses[0].EmployeeIDs[0] != emp.ID {
				t.Fatalf("reverse link not restored: %+v", businesses)
			}
		})
	}
}
