package runs

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"locafix/core/backup"
	"locafix/core/database"
	"locafix/core/storage"
	"locafix/core/storage/mocks"
	"locafix/feature/archive"
	"locafix/feature/history"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconcile_Journaled(t *testing.T) {
	fx := setupFixture(t)

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store := history.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "locafix", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "runs/reports/")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil).Once()
	client.On("PutObject", mock.Anything, "locafix", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "runs/backups/")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil).Once()

	empty := make(chan minio.ObjectInfo)
	close(empty)
	client.On("ListObjects", mock.Anything, "locafix", mock.Anything).Return((<-chan minio.ObjectInfo)(empty))

	publisher := archive.NewPublisher(client, storage.Config{Bucket: "locafix", Prefix: "runs"}, zap.NewNop(), archive.WithRetry(1, time.Millisecond))

	cfg := testConfig()
	cfg.KeepReports = 10
	svc, err := NewService(cfg, zap.NewNop(), WithHistory(store), WithPublisher(publisher))
	require.NoError(t, err)

	run, err := svc.Reconcile(context.Background(), ReconcileRequest{
		Original: fx.original, Modified: fx.modified, Dir: fx.dir, Confirmed: true,
	}, nil)
	require.NoError(t, err)

	result, _ := run.Result()
	assert.Equal(t, backup.PathFor(fx.modified), result.(*ReconcileSummary).CatalogBackup)

	rec, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, history.KindReconcile, rec.Kind)
	assert.Equal(t, string(StateCompleted), rec.State)
	assert.Equal(t, fx.dir, rec.Root)
	assert.Contains(t, rec.Summary, `"nodes_deleted":1`)

	records, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, run.ID, records[0].ID)

	client.AssertExpectations(t)
}

func TestJournaled_AfterRestart(t *testing.T) {
	fx := setupFixture(t)

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store := history.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	first, err := NewService(testConfig(), zap.NewNop(), WithHistory(store))
	require.NoError(t, err)
	run, err := first.Reconcile(context.Background(), ReconcileRequest{
		Original: fx.original, Modified: fx.modified, Dir: fx.dir, DryRun: true,
	}, nil)
	require.NoError(t, err)

	// A fresh service only knows the run through the journal
	second, err := NewService(testConfig(), zap.NewNop(), WithHistory(store))
	require.NoError(t, err)
	_, err = second.Get(run.ID)
	require.ErrorIs(t, err, ErrRunNotFound)

	rec, err := second.Journaled(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(StateCompleted), rec.State)
	assert.True(t, rec.DryRun)

	_, err = second.Journaled(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	app := fiber.New()
	NewHandler(second).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/runs/"+run.ID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, run.ID, body["id"])
	assert.Equal(t, history.KindReconcile, body["kind"])

	resp, err = app.Test(httptest.NewRequest("GET", "/runs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestJournaled_WithoutHistory(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Journaled(context.Background(), "any")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
