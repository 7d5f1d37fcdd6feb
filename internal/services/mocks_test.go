package services_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/models"
)

// MockBundleRepository is a mock implementation of repository.BundleRepository.
type MockBundleRepository struct {
	mock.Mock
}

func (m *MockBundleRepository) FindCandidates(ctx context.Context, q repository.CandidateQuery) ([]models.Bundle, error) {
	args := m.Called(ctx, q)
	var res []models.Bundle
	if args.Get(0) != nil {
		res = args.Get(0).([]models.Bundle)
	}
	return res, args.Error(1)
}

func (m *MockBundleRepository) TargetAppVersions(
	ctx context.Context,
	platform models.Platform,
	minBundleID models.BundleID,
) ([]string, error) {
	args := m.Called(ctx, platform, minBundleID)
	var res []string
	if args.Get(0) != nil {
		res = args.Get(0).([]string)
	}
	return res, args.Error(1)
}

func (m *MockBundleRepository) GetByID(ctx context.Context, id models.BundleID) (*models.Bundle, error) {
	args := m.Called(ctx, id)
	var res *models.Bundle
	if args.Get(0) != nil {
		res = args.Get(0).(*models.Bundle)
	}
	return res, args.Error(1)
}

func (m *MockBundleRepository) List(
	ctx context.Context,
	filter models.BundleFilter,
	limit, offset int,
) ([]models.Bundle, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	var res []models.Bundle
	if args.Get(0) != nil {
		res = args.Get(0).([]models.Bundle)
	}
	return res, args.Int(1), args.Error(2)
}

func (m *MockBundleRepository) CreateMany(ctx context.Context, bundles []models.Bundle) error {
	args := m.Called(ctx, bundles)
	return args.Error(0)
}

func (m *MockBundleRepository) Update(
	ctx context.Context,
	id models.BundleID,
	patch models.BundlePatch,
) (*models.Bundle, error) {
	args := m.Called(ctx, id, patch)
	var res *models.Bundle
	if args.Get(0) != nil {
		res = args.Get(0).(*models.Bundle)
	}
	return res, args.Error(1)
}

func (m *MockBundleRepository) SetStorage(ctx context.Context, id models.BundleID, storageURI, fileHash string) error {
	args := m.Called(ctx, id, storageURI, fileHash)
	return args.Error(0)
}

func (m *MockBundleRepository) Delete(ctx context.Context, id models.BundleID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBundleRepository) Channels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var res []string
	if args.Get(0) != nil {
		res = args.Get(0).([]string)
	}
	return res, args.Error(1)
}

// MockDeviceEventRepository is a mock implementation of repository.DeviceEventRepository.
type MockDeviceEventRepository struct {
	mock.Mock
}

func (m *MockDeviceEventRepository) Insert(ctx context.Context, e *models.DeviceEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockDeviceEventRepository) RolloutStats(
	ctx context.Context,
	bundleID models.BundleID,
) (*models.RolloutStats, error) {
	args := m.Called(ctx, bundleID)
	var res *models.RolloutStats
	if args.Get(0) != nil {
		res = args.Get(0).(*models.RolloutStats)
	}
	return res, args.Error(1)
}

// MockURIResolver is a mock implementation of storage.URIResolver.
type MockURIResolver struct {
	mock.Mock
}

func (m *MockURIResolver) Resolve(ctx context.Context, uri string) (string, error) {
	args := m.Called(ctx, uri)
	return args.String(0), args.Error(1)
}

// MockFileStorage is a mock implementation of storage.FileStorage.
// UploadFile вычитывает reader полностью, как это делает настоящий клиент.
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) SignedURL(ctx context.Context, bucket, key string) (string, error) {
	args := m.Called(ctx, bucket, key)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) UploadFile(
	ctx context.Context,
	key string,
	r io.Reader,
	size int64,
	contentType string,
) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	args := m.Called(ctx, key, size, contentType)
	return args.Error(0)
}

func (m *MockFileStorage) DeleteFile(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockFileStorage) Bucket() string {
	args := m.Called()
	return args.String(0)
}

func ptr[T any](v T) *T { return &v }
