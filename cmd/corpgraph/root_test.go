package main

import (
	"bytes"
	"corpgraph/pkg/domain"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupEnv(t *testing.T, env map[string]string) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"CORPGRAPH_ENV", "CORPGRAPH_LOG_LEVEL", "CORPGRAPH_STORAGE_DRIVER", "CORPGRAPH_SQLITE_PATH",
		"CORPGRAPH_POSTGRES_DSN", "CORPGRAPH_BLOB_DRIVER", "CORPGRAPH_BLOB_FS_ROOT", "CORPGRAPH_BLOB_KEY",
	} {
		t.Setenv(key, env[key])
	}
	t.Setenv("CORPGRAPH_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runApp(t, args...)
	return out, err
}

func runApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := a.execute(cmd)
	return out.String(), a, err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "corpgraph %s", strings.Join(args, " "))
	return strings.TrimSpace(out)
}

func listEmployees(t *testing.T) []domain.Employee {
	t.Helper()
	var employees []domain.Employee
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "list", "employees", "--json")), &employees))
	return employees
}

func TestCLIPersistsAcrossInvocations(t *testing.T) {
	setupEnv(t, map[string]string{"CORPGRAPH_STORAGE_DRIVER": "sqlite"})

	businessID := mustRun(t, "business", "add", "Acme")
	departmentID := mustRun(t, "department", "add")
	employeeID := mustRun(t, "employee", "add", "Dana", "--age", "30", "--joined", "2024-03-01")
	require.NotEmpty(t, businessID)

	mustRun(t, "link", "business-department", businessID, departmentID)
	mustRun(t, "link", "business-employee", businessID, employeeID)
	mustRun(t, "link", "department-employee", departmentID, employeeID)

	employees := listEmployees(t)
	require.Len(t, employees, 1)
	e := employees[0]
	assert.Equal(t, "Dana", e.Name)
	assert.Equal(t, 30, e.Age)
	assert.True(t, e.DateJoined.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, e.BusinessID)
	require.NotNil(t, e.DepartmentID)
	assert.Equal(t, businessID, *e.BusinessID)
	assert.Equal(t, departmentID, *e.DepartmentID)

	var departments []domain.Department
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "list", "departments", "--json")), &departments))
	require.Len(t, departments, 1)
	assert.Equal(t, "Marketing", departments[0].Name)
	assert.Equal(t, []string{businessID}, departments[0].BusinessIDs)
	assert.Equal(t, []string{employeeID}, departments[0].EmployeeIDs)

	mustRun(t, "business", "rm", businessID)
	employees = listEmployees(t)
	require.Len(t, employees, 1)
	assert.Nil(t, employees[0].BusinessID)
	assert.Empty(t, employees[0].BusinessIDs)
	require.NotNil(t, employees[0].DepartmentID)

	mustRun(t, "unlink", "department-employee", departmentID, employeeID)
	assert.Nil(t, listEmployees(t)[0].DepartmentID)
}

func TestCLIEmployeeEdits(t *testing.T) {
	setupEnv(t, map[string]string{"CORPGRAPH_STORAGE_DRIVER": "sqlite"})

	id := mustRun(t, "employee", "add")
	mustRun(t, "employee", "rename", id, "Robin")
	mustRun(t, "employee", "age", id, "41")

	employees := listEmployees(t)
	require.Len(t, employees, 1)
	assert.Equal(t, "Robin", employees[0].Name)
	assert.Equal(t, 41, employees[0].Age)

	_, err := run(t, "employee", "age", "--", id, "-3")
	require.Error(t, err)
	assert.Equal(t, 41, listEmployees(t)[0].Age)

	_, err = run(t, "employee", "age", id, "old")
	require.Error(t, err)

	mustRun(t, "employee", "rm", id)
	assert.Empty(t, listEmployees(t))
}

func TestCLIErrors(t *testing.T) {
	setupEnv(t, map[string]string{"CORPGRAPH_STORAGE_DRIVER": "sqlite"})
	businessID := mustRun(t, "business", "add")

	_, err := run(t, "link", "business-department", businessID, "missing")
	require.ErrorIs(t, err, domain.ErrDanglingReference)

	_, err = run(t, "link", "business-team", businessID, "missing")
	require.ErrorContains(t, err, "unknown link kind")

	_, err = run(t, "department", "rm", "missing")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = run(t, "employee", "add", "--joined", "yesterday")
	require.ErrorContains(t, err, "join date")

	_, err = run(t, "export", "--format", "xml")
	require.ErrorContains(t, err, "unsupported export format")

	_, err = run(t, "list", "teams")
	require.Error(t, err)
}

func TestCLIReleasesStoreWhenCommandFails(t *testing.T) {
	setupEnv(t, map[string]string{"CORPGRAPH_STORAGE_DRIVER": "sqlite"})

	_, a, err := runApp(t, "department", "rm", "missing")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
	require.NotNil(t, a.svc, "store should have been opened")
	assert.Nil(t, a.store)
	assert.Nil(t, a.logger)
	require.NoError(t, a.close())

	_, a, err = runApp(t, "list", "departments")
	require.NoError(t, err)
	require.NotNil(t, a.svc)
	assert.Nil(t, a.store)
}

func TestCLIExportAndTable(t *testing.T) {
	setupEnv(t, map[string]string{
		"CORPGRAPH_STORAGE_DRIVER": "blob",
		"CORPGRAPH_BLOB_DRIVER":    "fs",
		"CORPGRAPH_BLOB_FS_ROOT":   "data",
	})
	businessID := mustRun(t, "business", "add", "Globex")
	employeeID := mustRun(t, "employee", "add", "Sam")
	mustRun(t, "link", "business-employee", businessID, employeeID)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "export", "--format", "yaml")), &doc))
	require.Contains(t, doc, "businesses")
	require.Contains(t, doc, "employees")
	businesses, ok := doc["businesses"].([]any)
	require.True(t, ok)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Globex", businesses[0].(map[string]any)["name"])

	var snap struct {
		Employees []domain.Employee `json:"employees"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "export")), &snap))
	require.Len(t, snap.Employees, 1)
	assert.Equal(t, []string{businessID}, snap.Employees[0].BusinessIDs)

	table := mustRun(t, "list")
	assert.Contains(t, table, "BUSINESS")
	assert.Contains(t, table, "Globex")
	assert.Contains(t, table, "Sam")
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2023-07-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2023-07-04T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 7, 4, 8, 0, 0, 0, time.UTC), d)

	_, err = parseDate("04/07/2023")
	require.Error(t, err)
}
