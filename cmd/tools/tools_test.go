package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/indexsync"
	"github.com/lychee-technology/indexsync/internal"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	os.Exit(m.Run())
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = ""
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "mapping edit",
			args: []string{"--old-indexable", "--new-indexable", "--old-mapping", "PRICE,STOCK", "--new-mapping", "STOCK,VISIBILITY"},
			want: "PRICE,VISIBILITY",
		},
		{
			name: "indexing switched on",
			args: []string{"--new-indexable", "--old-mapping", "PRICE", "--new-mapping", "2,4"},
			want: "ATTRIBUTES,PRICE",
		},
		{
			name: "indexing switched off",
			args: []string{"--old-indexable", "--old-mapping", "STOCK", "--new-mapping", "PRICE"},
			want: "STOCK",
		},
		{
			name: "no change",
			args: []string{"--old-indexable", "--new-indexable", "--old-mapping", "PRICE", "--new-mapping", "price"},
			want: "NONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runRoot(t, append([]string{"classify"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestClassifyRejectsArguments(t *testing.T) {
	_, err := runRoot(t, "classify", "PRICE")
	assert.Error(t, err)
}

func TestResolveValidatesFlagsBeforeConnecting(t *testing.T) {
	_, err := runRoot(t, "resolve", "--entity", "11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--attribute")

	_, err = runRoot(t, "resolve", "--attribute", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--entity")

	_, err = runRoot(t, "resolve", "--attribute", "status", "--entity", "11", "--parent", "10", "--rule", "max")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown combine rule")
}

func TestCombineRule(t *testing.T) {
	rule, err := resolveOptions{attribute: indexsync.AttributeStatus}.combineRule()
	require.NoError(t, err)
	assert.Equal(t, indexsync.CombineStatus, rule)

	rule, err = resolveOptions{attribute: "name"}.combineRule()
	require.NoError(t, err)
	assert.Equal(t, indexsync.CombineParent, rule)

	rule, err = resolveOptions{attribute: "name", rule: "Visibility"}.combineRule()
	require.NoError(t, err)
	assert.Equal(t, indexsync.CombineVisibility, rule)
}

func TestPrintResolved(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printResolved(&out, indexsync.ResolvedAttributeValue{
		Value:  decimal.RequireFromString("19.99"),
		Source: indexsync.SourceStoreOverride,
	}))
	assert.JSONEq(t, `{"value": "19.99", "source": "STORE_OVERRIDE"}`, out.String())

	out.Reset()
	require.NoError(t, printResolved(&out, indexsync.ResolvedAttributeValue{
		Value:  time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Source: indexsync.SourceDefault,
	}))
	assert.JSONEq(t, `{"value": "2024-03-01T08:30:00Z", "source": "DEFAULT"}`, out.String())

	out.Reset()
	require.NoError(t, printResolved(&out, indexsync.ResolvedAttributeValue{Source: indexsync.SourceDefault}))
	assert.JSONEq(t, `{"value": null, "source": "DEFAULT"}`, out.String())
}

func TestWithTxCommitsCatalogSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tables := indexsync.DefaultTableNames()
	statements := internal.CatalogSchemaStatements(tables, "")
	mock.ExpectBegin()
	for range statements {
		mock.ExpectExec(".*").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	mock.ExpectCommit()

	ctx := context.Background()
	err = withTx(ctx, mock, func(tx pgx.Tx) error {
		return ensureTables(ctx, tx, tables, "")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tables := indexsync.DefaultTableNames()
	mock.ExpectBegin()
	mock.ExpectExec(".*").WillReturnError(errors.New("permission denied for schema public"))
	mock.ExpectRollback()

	ctx := context.Background()
	err = withTx(ctx, mock, func(tx pgx.Tx) error {
		return ensureTables(ctx, tx, tables, "entity_id")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure catalog tables")
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxReportsBeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err = withTx(context.Background(), mock, func(pgx.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestLoadConfigAppliesEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "catalog-db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_LINK_FIELD", "row_id")

	configPath = ""
	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "catalog-db", config.Database.Host)
	assert.Equal(t, 6543, config.Database.Port)
	assert.Equal(t, "row_id", config.Database.LinkField)

	configPath = "/nonexistent/indexsync.yaml"
	defer func() { configPath = "" }()
	_, err = loadConfig()
	assert.Error(t, err)
}
