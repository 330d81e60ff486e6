package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pdfannot/internal/model"
)

type MockAnnotationRepository struct {
	mock.Mock
}

func (m *MockAnnotationRepository) Create(ctx context.Context, a *model.Annotation) (*model.Annotation, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Annotation), args.Error(1)
}

func (m *MockAnnotationRepository) ListByDocument(ctx context.Context, documentID int64) ([]model.Annotation, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Annotation), args.Error(1)
}
