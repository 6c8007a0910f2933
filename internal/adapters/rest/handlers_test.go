package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leboncoin-parser-service/internal/core/domain"
)

// fakeTaskQueue запоминает поставленные задачи.
type fakeTaskQueue struct {
	tasks []domain.CrawlTask
	err   error
}

func (f *fakeTaskQueue) Enqueue(ctx context.Context, task domain.CrawlTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

// fakeRegisterCityUC отвечает подготовленным списком коммун.
type fakeRegisterCityUC struct {
	registered []domain.CityURL
	err        error
}

func (f *fakeRegisterCityUC) Execute(ctx context.Context, postalCode string) ([]domain.CityURL, error) {
	return f.registered, f.err
}

func TestEnqueueCrawl(t *testing.T) {
	queue := &fakeTaskQueue{}
	handler := NewCrawlHandler(queue, &fakeRegisterCityUC{})

	body := `{"insee_code":"33063"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/crawl", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.EnqueueCrawl(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202", rec.Code)
	}
	if len(queue.tasks) != 1 || queue.tasks[0].InseeCode != "33063" {
		t.Fatalf("enqueued tasks = %v; want one task for 33063", queue.tasks)
	}

	var resp EnqueueCrawlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TaskID == "" {
		t.Error("response must carry a generated task id")
	}
	if resp.InseeCode != "33063" {
		t.Errorf("response insee code = %q; want 33063", resp.InseeCode)
	}
}

func TestEnqueueCrawlValidation(t *testing.T) {
	handler := NewCrawlHandler(&fakeTaskQueue{}, &fakeRegisterCityUC{})

	tests := []struct {
		name string
		body string
	}{
		{"broken json", `{"insee_code":`},
		{"missing insee code", `{}`},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/crawl", strings.NewReader(tt.body))
		rec := httptest.NewRecorder()

		handler.EnqueueCrawl(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d; want 400", tt.name, rec.Code)
		}
	}
}

func TestEnqueueCrawlQueueFailure(t *testing.T) {
	handler := NewCrawlHandler(&fakeTaskQueue{err: errors.New("broker unavailable")}, &fakeRegisterCityUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/crawl", strings.NewReader(`{"insee_code":"33063"}`))
	rec := httptest.NewRecorder()

	handler.EnqueueCrawl(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", rec.Code)
	}
}

func TestRegisterCity(t *testing.T) {
	uc := &fakeRegisterCityUC{registered: []domain.CityURL{
		{InseeCode: "29019", URL: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Brest_29200"},
	}}
	handler := NewCrawlHandler(&fakeTaskQueue{}, uc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cities", strings.NewReader(`{"postal_code":"29200"}`))
	rec := httptest.NewRecorder()

	handler.RegisterCity(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201", rec.Code)
	}

	var resp RegisterCityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Cities) != 1 || resp.Cities[0].InseeCode != "29019" {
		t.Errorf("response cities = %v; want one entry for 29019", resp.Cities)
	}
}

func TestRegisterCityValidation(t *testing.T) {
	handler := NewCrawlHandler(&fakeTaskQueue{}, &fakeRegisterCityUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cities", strings.NewReader(`{"postal_code":"123"}`))
	rec := httptest.NewRecorder()

	handler.RegisterCity(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400 for short postal code", rec.Code)
	}
}

func TestRegisterCityNotFound(t *testing.T) {
	handler := NewCrawlHandler(&fakeTaskQueue{}, &fakeRegisterCityUC{err: domain.ErrCityNotFound})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cities", strings.NewReader(`{"postal_code":"00000"}`))
	rec := httptest.NewRecorder()

	handler.RegisterCity(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler := NewCrawlHandler(&fakeTaskQueue{}, &fakeRegisterCityUC{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s; want status ok", rec.Body.String())
	}
}
