package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nicktill/salesagg/pkg/summary"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	out := t.TempDir()
	return New(out, zap.NewNop()), out
}

func writeSummary(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHandleSummaries(t *testing.T) {
	s, out := testServer(t)
	writeSummary(t, out, "2024112314.txt",
		"2024/11/23 14|Widget|15.00\n2024/11/23 14|Gadget|2.50\n")

	rr := get(t, s, "/api/v1/summaries")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Rows  []summary.Row `json:"rows"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Rows, 2)
}

func TestHandleSummaries_EmptyDir(t *testing.T) {
	s, _ := testServer(t)

	rr := get(t, s, "/api/v1/summaries")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"rows":[]`)
}

func TestHandleSummaries_DateRange(t *testing.T) {
	s, out := testServer(t)
	writeSummary(t, out, "2024112223.txt", "2024/11/22 23|Widget|1.00\n")
	writeSummary(t, out, "2024112314.txt", "2024/11/23 14|Widget|2.00\n")

	rr := get(t, s, "/api/v1/summaries?start=2024-11-23&end=2024-11-23")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
}

func TestHandleSummaries_BadDates(t *testing.T) {
	s, _ := testServer(t)

	rr := get(t, s, "/api/v1/summaries?start=yesterday")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp["message"], "YYYY-MM-DD")

	rr = get(t, s, "/api/v1/summaries?start=2024-11-24&end=2024-11-23")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp["message"], "start must not be after end")
}

func TestHandleStats(t *testing.T) {
	s, out := testServer(t)
	writeSummary(t, out, "2024112314.txt",
		"2024/11/23 14|Widget|15.00\n2024/11/23 14|Gadget|2.50\n")
	writeSummary(t, out, "2024112315.txt", "2024/11/23 15|Widget|5.00\n")

	rr := get(t, s, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rr.Code)

	var stats summary.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	require.InDelta(t, 22.50, stats.TotalSales, 1e-6)
	require.Equal(t, 2, stats.UniqueProducts)
	require.Equal(t, "Widget", stats.TopProduct)
}

func TestHandleProductsAndHours(t *testing.T) {
	s, out := testServer(t)
	writeSummary(t, out, "2024112314.txt",
		"2024/11/23 14|Widget|15.00\n2024/11/23 14|Gadget|2.50\n")

	rr := get(t, s, "/api/v1/products")
	require.Equal(t, http.StatusOK, rr.Code)
	var products struct {
		Products []summary.ProductSales `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	require.Len(t, products.Products, 2)
	require.Equal(t, "Widget", products.Products[0].Product)

	rr = get(t, s, "/api/v1/hours")
	require.Equal(t, http.StatusOK, rr.Code)
	var hours struct {
		Hours []summary.HourSales `json:"hours"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hours))
	require.Len(t, hours.Hours, 1)
	require.InDelta(t, 17.50, hours.Hours[0].Sales, 1e-6)
}

func TestHandleStatus(t *testing.T) {
	s, out := testServer(t)
	writeSummary(t, out, "2024112314.txt", "2024/11/23 14|Widget|15.00\n")
	writeSummary(t, out, "notes.md", "not counted\n")

	rr := get(t, s, "/api/v1/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var status OutputStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, 1, status.Files)
	require.Greater(t, status.Bytes, int64(0))
}

func TestHandleStatus_MissingDirIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "not-yet"), zap.NewNop())

	rr := get(t, s, "/api/v1/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var status OutputStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, 0, status.Files)
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "ok")
}
