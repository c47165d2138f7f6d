package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

func TestSendMessage(t *testing.T) {
	// Setup
	var gotPath string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService("test-token", "12345", logrus.New())
	service.apiBase = server.URL

	// Test
	err := service.SendMessage("hello")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "12345", gotPayload["chat_id"])
	assert.Equal(t, "hello", gotPayload["text"])
	assert.Equal(t, "HTML", gotPayload["parse_mode"])
}

func TestSendMessage_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected string
	}{
		{name: "Unauthorized", status: http.StatusUnauthorized, expected: "invalid bot token"},
		{name: "Bad request", status: http.StatusBadRequest, expected: "invalid chat ID or message format"},
		{name: "Forbidden", status: http.StatusForbidden, expected: "blocked"},
		{name: "Not found", status: http.StatusNotFound, expected: "bot not found"},
		{name: "Server error", status: http.StatusInternalServerError, expected: "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			service := NewService("test-token", "12345", logrus.New())
			service.apiBase = server.URL

			// Test
			err := service.SendMessage("hello")

			// Assert
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestNotifyRefreshSummary(t *testing.T) {
	// Setup
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService("test-token", "12345", logrus.New())
	service.apiBase = server.URL

	summary := models.RefreshSummary{
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Requested: 4,
		Succeeded: 3,
		Failed:    1,
		Failures:  []string{"ZZ9 9ZZ: geocoding failed"},
	}

	// Test
	err := service.NotifyRefreshSummary(summary)

	// Assert
	assert.NoError(t, err)
	text, _ := gotPayload["text"].(string)
	assert.Contains(t, text, "3 of 4 postcodes refreshed")
	assert.Contains(t, text, "1 failed")
	assert.Contains(t, text, "ZZ9 9ZZ: geocoding failed")
}

func TestNotifyRefreshSummary_DisabledIsNoOp(t *testing.T) {
	// Setup
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	service := NewService("", "", logrus.New())
	service.apiBase = server.URL

	// Test
	err := service.NotifyRefreshSummary(models.RefreshSummary{Requested: 1})

	// Assert
	assert.NoError(t, err)
	assert.False(t, service.Enabled())
	assert.Equal(t, 0, requests)
}
