package service

import (
	"context"

	"github.com/UnendingLoop/TinyRelay/internal/model"
)

// MOCK UPLOADER

type mockUploader struct {
	uploadFn func(ctx context.Context, body []byte) (*model.Descriptor, error)
}

func (m *mockUploader) Upload(ctx context.Context, body []byte) (*model.Descriptor, error) {
	return m.uploadFn(ctx, body)
}

// MOCK RECORDER

type mockRecorder struct {
	observeFn func(res *model.RelayResult, desc *model.Descriptor, err error)
}

func (m *mockRecorder) Observe(res *model.RelayResult, desc *model.Descriptor, err error) {
	m.observeFn(res, desc, err)
}
