package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"backoffice/internal/storage"
)

// MockStorage records calls for services that upload reports, audio and
// signed contract PDFs.
type MockStorage struct {
	mock.Mock
}

// Put drains r so tests can assert on what the service streamed.
func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if r != nil {
		_, _ = io.Copy(io.Discard, r)
	}
	info, _ := args.Get(0).(storage.ObjectInfo)
	return info, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
