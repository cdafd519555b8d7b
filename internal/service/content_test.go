package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestContentService_Page(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContentRepository(ctrl)
	svc := NewContentService(ContentServiceOptions{Repo: repo})

	want := model.ContentListOptions{Search: "book", Limit: 5, Offset: 5}
	repo.EXPECT().List(gomock.Any(), want).Return([]*model.ContentItem{{ID: "006"}}, nil)
	repo.EXPECT().Count(gomock.Any(), "book").Return(6, nil)

	page, err := svc.Page(context.Background(), model.ContentListOptions{Search: " book ", Limit: 7, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 5, page.Limit)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())
}

func TestContentService_PageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContentRepository(ctrl)
	svc := NewContentService(ContentServiceOptions{Repo: repo})

	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()

	_, err := svc.Page(context.Background(), model.ContentListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list content")
}

func TestContentService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContentRepository(ctrl)
	svc := NewContentService(ContentServiceOptions{Repo: repo})

	repo.EXPECT().Delete(gomock.Any(), "001").Return(true, nil)
	require.NoError(t, svc.Delete(context.Background(), "001"))

	repo.EXPECT().Delete(gomock.Any(), "999").Return(false, nil)
	err := svc.Delete(context.Background(), "999")
	assert.True(t, apperrors.IsNotFound(err))

	err = svc.Delete(context.Background(), " ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestContentService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContentRepository(ctrl)
	svc := NewContentService(ContentServiceOptions{Repo: repo})

	repo.EXPECT().GetByID(gomock.Any(), "002").Return(&model.ContentItem{ID: "002", Title: "Deep Learning"}, nil)
	item, err := svc.Get(context.Background(), "002")
	require.NoError(t, err)
	assert.Equal(t, "Deep Learning", item.Title)
}

func TestContentService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockContentRepository(ctrl)
	svc := NewContentService(ContentServiceOptions{Repo: repo})

	repo.EXPECT().
		Seed(gomock.Any(), gomock.Len(10), true).
		Return(10, nil)

	n, err := svc.Seed(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
