package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

type fakeAlertStore struct {
	created []domain.AlertDefinition
	deleted []string
}

func (f *fakeAlertStore) Create(_ context.Context, def domain.AlertDefinition) error {
	f.created = append(f.created, def)
	return nil
}

func (f *fakeAlertStore) Delete(_ context.Context, id string) error {
	for _, d := range f.deleted {
		if d == id {
			return domain.ErrNotFound
		}
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAlertStore) ListActive(context.Context, domain.AlertType) ([]domain.AlertDefinition, error) {
	return nil, nil
}

func (f *fakeAlertStore) RecordTrigger(context.Context, string, time.Time) error { return nil }

const validBody = `{
	"user_email": "trader@example.com",
	"alert_type": "arbitrage",
	"alert_name": "big spreads",
	"conditions": {"market_title": "btc", "platforms": ["polymarket", "kalshi"], "min_spread": 10, "min_match_score": 0.5},
	"email_enabled": true
}`

func TestCreateAlert(t *testing.T) {
	store := &fakeAlertStore{}
	h := NewAlertHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/", strings.NewReader(validBody))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d alerts, want 1", len(store.created))
	}

	def := store.created[0]
	if def.ID == "" || !def.Active {
		t.Errorf("definition not initialized: %+v", def)
	}
	if def.Conditions.MinSpread != 10 || len(def.Conditions.Platforms) != 2 {
		t.Errorf("conditions not mapped: %+v", def.Conditions)
	}
	if len(def.Channels) != 1 || def.Channels[0] != domain.ChannelEmail {
		t.Errorf("channels = %v, want [email]", def.Channels)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != def.ID {
		t.Errorf("response id = %q, want %q", resp["id"], def.ID)
	}
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"wrong type", strings.Replace(validBody, "arbitrage", "price", 1)},
		{"bad email", strings.Replace(validBody, "trader@example.com", "not-an-email", 1)},
		{"unknown platform", strings.Replace(validBody, "kalshi", "nyse", 1)},
		{"no channels", strings.Replace(validBody, `"email_enabled": true`, `"email_enabled": false`, 1)},
		{"negative spread", strings.Replace(validBody, `"min_spread": 10`, `"min_spread": -1`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAlertStore{}
			h := NewAlertHandler(store, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/alerts/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			if len(store.created) != 0 {
				t.Error("invalid alert must not reach the store")
			}
		})
	}
}

func TestDeleteAlert(t *testing.T) {
	store := &fakeAlertStore{}
	h := NewAlertHandler(store, testLogger())

	id := "b2c7a0c4-9e9e-4e63-9a39-4c2f9a3cf001"
	req := httptest.NewRequest(http.MethodDelete, "/api/alerts/"+id, nil)
	req.SetPathValue("id", id)
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	// Deleting again reports not found.
	rr = httptest.NewRecorder()
	h.Delete(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestDeleteAlertRejectsBadID(t *testing.T) {
	h := NewAlertHandler(&fakeAlertStore{}, testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/alerts/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
