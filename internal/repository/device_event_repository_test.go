package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/models"
)

func TestDeviceEventRepository_Insert(t *testing.T) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	query := regexp.QuoteMeta(`INSERT INTO device_events (id, device_id, bundle_id, event_type, platform,` +
		` app_version, channel, metadata) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`)

	tests := []struct {
		name         string
		metadata     json.RawMessage
		expectedMeta []byte
		dbErr        error
	}{
		{name: "Без metadata", metadata: nil, expectedMeta: []byte("{}")},
		{name: "С metadata", metadata: json.RawMessage(`{"reason":"crash"}`), expectedMeta: []byte(`{"reason":"crash"}`)},
		{name: "Ошибка базы данных", dbErr: errors.New("connection error"), expectedMeta: []byte("{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupSQLMock(t)
			repo := repository.NewPostgresDeviceEventRepository(db)
			e := &models.DeviceEvent{
				ID:        "event-1",
				DeviceID:  "device-1",
				BundleID:  testBundleA,
				EventType: models.EventPromoted,
				Platform:  models.PlatformIOS,
				Channel:   "production",
				Metadata:  tt.metadata,
			}

			exp := mock.ExpectQuery(query).
				WithArgs("event-1", "device-1", testBundleA, models.EventPromoted, models.PlatformIOS, nil,
					"production", tt.expectedMeta)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
			}

			err := repo.Insert(ctx, e)

			if tt.dbErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ошибка выполнения запроса на сохранение события")
			} else {
				require.NoError(t, err)
				assert.Equal(t, now, e.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeviceEventRepository_RolloutStats(t *testing.T) {
	db, mock := setupSQLMock(t)
	repo := repository.NewPostgresDeviceEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM device_events WHERE bundle_id = $1`)).
		WithArgs(testBundleA).
		WillReturnRows(sqlmock.NewRows([]string{"total_devices", "promoted_count", "recovered_count"}).
			AddRow(4, 3, 1))

	stats, err := repo.RolloutStats(context.Background(), testBundleA)

	require.NoError(t, err)
	assert.Equal(t, &models.RolloutStats{
		BundleID:       testBundleA,
		TotalDevices:   4,
		PromotedCount:  3,
		RecoveredCount: 1,
		SuccessRate:    75,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceEventRepository_RolloutStats_Error(t *testing.T) {
	db, mock := setupSQLMock(t)
	repo := repository.NewPostgresDeviceEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM device_events`)).WillReturnError(errors.New("timeout"))

	_, err := repo.RolloutStats(context.Background(), testBundleA)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
