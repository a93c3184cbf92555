package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"songstory-server/internal/mocks"
	"songstory-server/internal/model"
	"songstory-server/internal/service"
)

func TestHistoryService_List(t *testing.T) {
	records := []model.HistoryRecord{{ID: "b"}, {ID: "a"}, {ID: "c"}}

	tests := []struct {
		name    string
		records []model.HistoryRecord
		err     error
		want    []model.HistoryRecord
	}{
		{"preserves store order", records, nil, records},
		{"store failure gives empty list", nil, errors.New("sheetdb down"), []model.HistoryRecord{}},
		{"nil list gives empty list", nil, nil, []model.HistoryRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockRecordStore(t)
			store.On("ListRecords", mock.Anything).Return(tt.records, tt.err).Once()

			got := service.NewHistoryService(store, nil).List(context.Background())

			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}
