package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gronxb/hot-updater-sub000/internal/handlers"
	"github.com/gronxb/hot-updater-sub000/models"
)

func TestEventHandler_Track(t *testing.T) {
	valid := `{"deviceId":"device-1","bundleId":"` + bundleID + `","eventType":"PROMOTED",` +
		`"platform":"ios","channel":"production","metadata":{"attempt":1}}`

	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *MockEventService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Событие принято",
			body: valid,
			mockSetup: func(m *MockEventService) {
				m.On("Track", mock.Anything, mock.MatchedBy(func(e *models.DeviceEvent) bool {
					return e.DeviceID == "device-1" && e.EventType == models.EventPromoted &&
						string(e.Metadata) == `{"attempt":1}`
				})).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true}` + "\n",
		},
		{
			name:           "Нет обязательных полей",
			body:           `{"deviceId":"device-1"}`,
			mockSetup:      func(_ *MockEventService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Не заполнены обязательные поля\n",
		},
		{
			name: "Неизвестный тип события",
			body: `{"deviceId":"d","bundleId":"` + bundleID + `","eventType":"CRASHED",` +
				`"platform":"ios","channel":"production"}`,
			mockSetup:      func(_ *MockEventService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неизвестный тип события\n",
		},
		{
			name: "Неизвестная платформа",
			body: `{"deviceId":"d","bundleId":"` + bundleID + `","eventType":"RECOVERED",` +
				`"platform":"web","channel":"production"}`,
			mockSetup:      func(_ *MockEventService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неизвестная платформа\n",
		},
		{
			name: "Ошибка сохранения",
			body: valid,
			mockSetup: func(m *MockEventService) {
				m.On("Track", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Не удалось сохранить событие\n",
		},
		{
			name:           "Неверный JSON",
			body:           `[`,
			mockSetup:      func(_ *MockEventService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неверный формат запроса\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEventService)
			tt.mockSetup(svc)
			r := chi.NewRouter()
			r.Post("/track", handlers.NewEventHandler(svc).Track)

			rr := serve(r, http.MethodPost, "/track", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
