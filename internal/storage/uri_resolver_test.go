package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gronxb/hot-updater-sub000/internal/storage"
)

// MockSigner is a mock implementation of ObjectURLSigner.
type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) SignedURL(ctx context.Context, bucket, objectKey string) (string, error) {
	args := m.Called(ctx, bucket, objectKey)
	return args.String(0), args.Error(1)
}

func TestSchemeResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		uri         string
		mockSetup   func(s *MockSigner)
		expectedURL string
		expectedErr error
	}{
		{
			name:        "Пустая ссылка",
			uri:         "",
			mockSetup:   func(_ *MockSigner) {},
			expectedURL: "",
		},
		{
			name:        "HTTPS без изменений",
			uri:         "https://cdn.example.com/bundles/1.zip",
			mockSetup:   func(_ *MockSigner) {},
			expectedURL: "https://cdn.example.com/bundles/1.zip",
		},
		{
			name:        "HTTP без изменений",
			uri:         "http://localhost:3000/bundle.zip",
			mockSetup:   func(_ *MockSigner) {},
			expectedURL: "http://localhost:3000/bundle.zip",
		},
		{
			name: "S3 подписывается",
			uri:  "s3://bundles/ios/0195/bundle.zip",
			mockSetup: func(s *MockSigner) {
				s.On("SignedURL", ctx, "bundles", "ios/0195/bundle.zip").
					Return("https://minio.local/bundles/ios/0195/bundle.zip?X-Amz-Signature=abc", nil).Once()
			},
			expectedURL: "https://minio.local/bundles/ios/0195/bundle.zip?X-Amz-Signature=abc",
		},
		{
			name:        "Неизвестная схема",
			uri:         "gs://bucket/key.zip",
			mockSetup:   func(_ *MockSigner) {},
			expectedErr: storage.ErrUnsupportedScheme,
		},
		{
			name:        "Ссылка без ключа",
			uri:         "s3://bucket",
			mockSetup:   func(_ *MockSigner) {},
			expectedErr: storage.ErrInvalidURI,
		},
		{
			name: "Ошибка подписи",
			uri:  "s3://bundles/key.zip",
			mockSetup: func(s *MockSigner) {
				s.On("SignedURL", ctx, "bundles", "key.zip").Return("", errors.New("boom")).Once()
			},
			expectedErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := new(MockSigner)
			tt.mockSetup(signer)
			r := storage.NewSchemeResolver(map[string]storage.ObjectURLSigner{"S3": signer})

			got, err := r.Resolve(ctx, tt.uri)

			if tt.expectedErr != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedErr, storage.ErrUnsupportedScheme) || errors.Is(tt.expectedErr, storage.ErrInvalidURI) {
					assert.ErrorIs(t, err, tt.expectedErr)
				} else {
					assert.EqualError(t, err, tt.expectedErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedURL, got)
			}
			signer.AssertExpectations(t)
		})
	}
}

func TestParseObjectURI(t *testing.T) {
	obj, err := storage.ParseObjectURI("S3://bundles/android/id/bundle.zip")
	require.NoError(t, err)

	assert.Equal(t, storage.ObjectURI{Scheme: "s3", Bucket: "bundles", Key: "android/id/bundle.zip"}, obj)
	assert.Equal(t, "s3://bundles/android/id/bundle.zip", obj.String())

	_, err = storage.ParseObjectURI("not a uri")
	assert.ErrorIs(t, err, storage.ErrInvalidURI)
}
