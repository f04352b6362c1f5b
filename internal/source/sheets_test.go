package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetsSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Respostas!A1:C3",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Gênero", "Idade (anos)", "Timestamp"},
				{"Masculino", 25, "t1"},
				{"Feminino"},
			},
		})
	}))
	defer server.Close()

	src := NewSheetsSource("sheet-id", "Respostas!A:C", SheetsOptions{Endpoint: server.URL + "/"})
	rows, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Masculino", "25", "t1"}, rows[1])
	assert.Equal(t, []string{"Feminino"}, rows[2])
	assert.Equal(t, "sheets", src.Name())
}

func TestSheetsSource_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"A1:A1","majorDimension":"ROWS"}`))
	}))
	defer server.Close()

	_, err := NewSheetsSource("id", "A:A", SheetsOptions{Endpoint: server.URL + "/"}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestSheetsSource_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
	}))
	defer server.Close()

	_, err := NewSheetsSource("id", "A:A", SheetsOptions{Endpoint: server.URL + "/"}).Fetch(context.Background())
	assert.Error(t, err)
}
