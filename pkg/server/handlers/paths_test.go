package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/pathfinder"
	"github.com/soundprediction/pathfinder/pkg/knowledge"
	"github.com/soundprediction/pathfinder/pkg/server/dto"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbr = "http://dbpedia.org/resource/"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryFinder(t *testing.T) *pathfinder.Client {
	t.Helper()
	kb := knowledge.NewMemoryClient([]types.Triple{
		{Subject: dbr + "Albert_Einstein", Relation: "http://dbpedia.org/ontology/birthPlace", Object: dbr + "Ulm"},
		{Subject: dbr + "Ulm", Relation: "http://dbpedia.org/ontology/country", Object: dbr + "Germany"},
	})
	client, err := pathfinder.NewClient(kb, nil, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type errFinder struct {
	err error
}

func (f errFinder) FindPath(context.Context, pathfinder.Request) (*pathfinder.Result, error) {
	return nil, f.err
}

func (f errFinder) Ping(context.Context) error {
	return nil
}

func postPaths(t *testing.T, h *PathsHandler, body string) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/paths", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.FindPath(c)
	return w, w.Body.Bytes()
}

func TestFindPathFound(t *testing.T) {
	h := NewPathsHandler(memoryFinder(t), 2, discard())

	w, raw := postPaths(t, h, `{"source":"Albert_Einstein","target":"Germany","session_id":"s-1"}`)
	require.Equal(t, http.StatusOK, w.Code, string(raw))

	var resp dto.FindPathResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, 2, resp.MaxHops)
	assert.Equal(t, []string{
		"http://dbpedia.org/ontology/birthPlace",
		"http://dbpedia.org/ontology/country",
	}, resp.Relations)
	require.Len(t, resp.Path, 2)
	assert.Equal(t, dbr+"Ulm", resp.Path[0].Object)
	assert.Equal(t, dbr+"Germany", resp.Path[1].Object)
}

func TestFindPathNotFound(t *testing.T) {
	h := NewPathsHandler(memoryFinder(t), 2, discard())

	w, raw := postPaths(t, h, `{"source":"Albert_Einstein","target":"Germany","max_hops":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.FindPathResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Relations)
	assert.NotNil(t, resp.Path)
}

func TestFindPathBadRequests(t *testing.T) {
	h := NewPathsHandler(memoryFinder(t), 2, discard())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"source":`},
		{"missing target", `{"source":"A"}`},
		{"blank source", `{"source":"  ","target":"B"}`},
		{"negative hops", `{"source":"A","target":"B","max_hops":-1}`},
		{"too many hops", fmt.Sprintf(`{"source":"A","target":"B","max_hops":%d}`, dto.MaxHops+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, raw := postPaths(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &resp))
			assert.Equal(t, dto.ErrCodeInvalidRequest, resp.Error)
		})
	}
}

func TestFindPathErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid budget", pathfinder.ErrInvalidHopBudget, http.StatusBadRequest},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPathsHandler(errFinder{err: tt.err}, 2, discard())
			w, _ := postPaths(t, h, `{"source":"A","target":"B"}`)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestFindPathWithoutClient(t *testing.T) {
	h := NewPathsHandler(nil, 2, discard())
	w, _ := postPaths(t, h, `{"source":"A","target":"B"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
