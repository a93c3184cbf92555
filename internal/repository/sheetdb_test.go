package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songstory-server/internal/model"
)

func TestSheetDBStore_CreateRecord(t *testing.T) {
	var got map[string][]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sheet", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":1}`))
	}))
	defer srv.Close()

	store := NewSheetDBStore(srv.URL+"/api/v1/sheet", time.Second, nil)
	err := store.CreateRecord(context.Background(), model.HistoryRecord{
		ID: "job-1", Keyword: "rivers", Lyrics: "la la", Image: "https://img", Music: "", Days: "",
	})

	require.NoError(t, err)
	require.Len(t, got["data"], 1)
	assert.Equal(t, map[string]string{
		"id": "job-1", "keyword": "rivers", "lyrics": "la la", "image": "https://img", "music": "", "days": "",
	}, got["data"][0])
}

func TestSheetDBStore_CreateRecord_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	store := NewSheetDBStore(srv.URL, time.Second, nil)
	err := store.CreateRecord(context.Background(), model.HistoryRecord{ID: "x"})

	assert.ErrorIs(t, err, ErrRecordStore)
}

func TestSheetDBStore_ListRecords_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[
			{"id":"b","keyword":"second","lyrics":"","image":"","music":null,"days":null},
			{"id":"a","keyword":"first","lyrics":"l","image":"i","music":"m","days":"2024-05-01"}
		]`))
	}))
	defer srv.Close()

	store := NewSheetDBStore(srv.URL, time.Second, nil)
	records, err := store.ListRecords(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID)
	assert.Empty(t, records[0].Music)
	assert.Equal(t, model.HistoryRecord{ID: "a", Keyword: "first", Lyrics: "l", Image: "i", Music: "m", Days: "2024-05-01"}, records[1])
}

func TestSheetDBStore_ListRecords_Failures(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status":   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"not list": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"error":"no sheet"}`)) },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			records, err := NewSheetDBStore(srv.URL, time.Second, nil).ListRecords(context.Background())

			assert.ErrorIs(t, err, ErrRecordStore)
			assert.Nil(t, records)
		})
	}
}
