package forecastapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

func TestFetchPredictionsPostsRequest(t *testing.T) {
	var (
		got         map[string]any
		method      string
		contentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"date":"2024-01-01","predicted_value":100.25}],"metrics":{"total_sales":5000}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	payload, err := client.FetchPredictions(context.Background(), forecast.PredictionRequest{
		Branch:    "Zurich",
		Periods:   30,
		Frequency: forecast.Daily,
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, map[string]any{"branch_name": "Zurich", "periods": float64(30), "frequency": "D"}, got)

	result, _, err := forecast.Normalize(payload)
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
	require.Equal(t, 100.25, result.Points[0].Predicted)
	require.Equal(t, 5000.0, result.TotalSales)
}

func TestFetchPredictionsErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"model unavailable"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchPredictions(context.Background(), forecast.PredictionRequest{Branch: "Zurich", Periods: 30, Frequency: forecast.Daily})
	var transportErr *forecast.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	require.Equal(t, "model unavailable", transportErr.Detail)
}

func TestFetchPredictionsErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchPredictions(context.Background(), forecast.PredictionRequest{Branch: "Zurich"})
	var transportErr *forecast.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Empty(t, transportErr.Detail)
}

func TestFetchPredictionsUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchPredictions(context.Background(), forecast.PredictionRequest{Branch: "Zurich"})
	var shapeErr *forecast.NormalizationError
	require.ErrorAs(t, err, &shapeErr)
}

func TestFetchPredictionsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).FetchPredictions(context.Background(), forecast.PredictionRequest{Branch: "Zurich"})
	var transportErr *forecast.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Zero(t, transportErr.StatusCode)
}

func TestExtractDetail(t *testing.T) {
	require.Equal(t, "model unavailable", extractDetail([]byte(`{"detail":"model unavailable"}`)))
	require.Equal(t, "field required; bad periods", extractDetail([]byte(`{"detail":[{"msg":"field required"},{"msg":"bad periods"}]}`)))
	require.Empty(t, extractDetail([]byte(`not json`)))
	require.Empty(t, extractDetail([]byte(`{"error":"x"}`)))
}

func TestFetchPredictionsDeadlineFromContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL)
	require.Zero(t, client.httpClient.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.FetchPredictions(ctx, forecast.PredictionRequest{Branch: "Zurich"})

	var transportErr *forecast.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
