package handlers_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/gronxb/hot-updater-sub000/internal/resolver"
	"github.com/gronxb/hot-updater-sub000/models"
)

// MockAuthService is a mock implementation of services.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(username, password string) (string, error) {
	args := m.Called(username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

// MockUpdateService is a mock implementation of services.UpdateService.
type MockUpdateService struct {
	mock.Mock
}

func (m *MockUpdateService) GetAppUpdateInfo(ctx context.Context, req resolver.Request) (*models.AppUpdateInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppUpdateInfo), args.Error(1) //nolint:errcheck // мок
}

// MockBundleService is a mock implementation of services.BundleService.
type MockBundleService struct {
	mock.Mock
}

func (m *MockBundleService) List(
	ctx context.Context,
	filter models.BundleFilter,
	limit, offset int,
) (*models.BundleList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BundleList), args.Error(1) //nolint:errcheck // мок
}

func (m *MockBundleService) Get(ctx context.Context, id models.BundleID) (*models.Bundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bundle), args.Error(1) //nolint:errcheck // мок
}

func (m *MockBundleService) Create(ctx context.Context, bundles []models.Bundle) ([]models.Bundle, error) {
	args := m.Called(ctx, bundles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bundle), args.Error(1) //nolint:errcheck // мок
}

func (m *MockBundleService) Update(
	ctx context.Context,
	id models.BundleID,
	patch models.BundlePatch,
) (*models.Bundle, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bundle), args.Error(1) //nolint:errcheck // мок
}

func (m *MockBundleService) Delete(ctx context.Context, id models.BundleID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBundleService) Channels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1) //nolint:errcheck // мок
}

func (m *MockBundleService) UploadArchive(
	ctx context.Context,
	id models.BundleID,
	r io.Reader,
	size int64,
	contentType string,
) (*models.Bundle, error) {
	// Тело читается целиком, как при настоящей загрузке.
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, id, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bundle), args.Error(1) //nolint:errcheck // мок
}

// MockEventService is a mock implementation of services.EventService.
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Track(ctx context.Context, e *models.DeviceEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventService) RolloutStats(ctx context.Context, id models.BundleID) (*models.RolloutStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RolloutStats), args.Error(1) //nolint:errcheck // мок
}

func ptr[T any](v T) *T { return &v }
