package db

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var _ history.Store = (*Client)(nil)

var testDB *Client

// TestMain starts a SurrealDB container for the integration tests.
// Without -short and with a reachable Docker daemon the tests run against it;
// otherwise they skip.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v2.3.7",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Printf("surrealdb container unavailable, skipping integration tests: %v", err)
		os.Exit(m.Run())
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("container host: %v", err)
	}
	// testcontainers may report "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, port.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("connect to test database: %v", err)
	}
	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// freshDB returns the shared client with an empty translation table.
func freshDB(t *testing.T) *Client {
	t.Helper()
	if testDB == nil {
		t.Skip("surrealdb not available")
	}
	require.NoError(t, testDB.WipeData(context.Background()))
	return testDB
}

func sample(text string, at time.Time) models.TranslationRecord {
	return models.TranslationRecord{
		SourceText:         text,
		TranslatedText:     "translated " + text,
		SourceLanguageCode: "en",
		TargetLanguageCode: "hi",
		CreatedAt:          at,
	}
}

func TestAppendAssignsID(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()

	saved, err := db.Append(ctx, sample("Hello", time.Time{}))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	recs, err := db.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, saved.ID, recs[0].ID)
	assert.Equal(t, "Hello", recs[0].SourceText)
	assert.Equal(t, "translated Hello", recs[0].TranslatedText)
	assert.Equal(t, "en", recs[0].SourceLanguageCode)
	assert.Equal(t, "hi", recs[0].TargetLanguageCode)
}

func TestAppendDuplicateID(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()

	rec := sample("Hello", time.Now())
	rec.ID = "fixed-id"
	_, err := db.Append(ctx, rec)
	require.NoError(t, err)

	_, err = db.Append(ctx, rec)
	assert.ErrorIs(t, err, history.ErrDuplicateID)
}

func TestListNewestFirst(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		_, err := db.Append(ctx, sample(text, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	recs, err := db.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "third", recs[0].SourceText)
	assert.Equal(t, "second", recs[1].SourceText)
	assert.Equal(t, "first", recs[2].SourceText)
	assert.True(t, recs[0].CreatedAt.Equal(base.Add(2*time.Minute)))

	recs, err = db.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestDelete(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()

	saved, err := db.Append(ctx, sample("Hello", time.Now()))
	require.NoError(t, err)

	require.NoError(t, db.Delete(ctx, saved.ID))
	assert.ErrorIs(t, db.Delete(ctx, saved.ID), history.ErrNotFound)

	recs, err := db.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
