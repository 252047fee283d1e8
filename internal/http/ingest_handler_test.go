package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	ingestormocks "weblog-analytics/internal/ingestors/mocks"
	"weblog-analytics/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newIngestRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/services/demo/logs", bytes.NewReader([]byte(body)))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("service", "demo")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestIngestHandler_Handle_SingleEvent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIngestionService := ingestormocks.NewMockIngestionService(ctrl)
	handler := NewIngestHandler(mockIngestionService)

	req := newIngestRequest(`{"path": "/", "status": 200}`)
	rr := httptest.NewRecorder()

	mockIngestionService.EXPECT().
		Ingest(gomock.Any(), "demo", map[string]any{"path": "/", "status": float64(200)}).
		Return(nil)

	err := handler.Handle(rr, req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestIngestHandler_Handle_EventArray(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIngestionService := ingestormocks.NewMockIngestionService(ctrl)
	handler := NewIngestHandler(mockIngestionService)

	req := newIngestRequest(`[{"path": "/a"}, {"path": "/b"}]`)
	rr := httptest.NewRecorder()

	gomock.InOrder(
		mockIngestionService.EXPECT().Ingest(gomock.Any(), "demo", map[string]any{"path": "/a"}).Return(nil),
		mockIngestionService.EXPECT().Ingest(gomock.Any(), "demo", map[string]any{"path": "/b"}).Return(nil),
	)

	err := handler.Handle(rr, req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestIngestHandler_Handle_MalformedBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not json`},
		{name: "scalar", body: `42`},
		{name: "empty object", body: `{}`},
		{name: "array with scalar element", body: `[{"path": "/"}, 42]`},
		{name: "array with empty object", body: `[{"path": "/a"}, {}]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockIngestionService := ingestormocks.NewMockIngestionService(ctrl)
			handler := NewIngestHandler(mockIngestionService)

			rr := httptest.NewRecorder()
			err := handler.Handle(rr, newIngestRequest(tt.body))

			svcErr, ok := svcerrors.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, "HTTP_1000", svcErr.Code)
		})
	}
}

func TestIngestHandler_Handle_IngestionError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIngestionService := ingestormocks.NewMockIngestionService(ctrl)
	handler := NewIngestHandler(mockIngestionService)

	expectedErr := svcerrors.NewInvalidArgumentError("ING_1000", "invalid service name", nil)
	mockIngestionService.EXPECT().
		Ingest(gomock.Any(), "demo", gomock.Any()).
		Return(expectedErr)

	rr := httptest.NewRecorder()
	err := handler.Handle(rr, newIngestRequest(`{"path": "/"}`))

	require.Error(t, err)
	svcErr, ok := svcerrors.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "ING_1000", svcErr.Code)
	// Status should not be set when error occurs
	assert.Equal(t, http.StatusOK, rr.Code)
}
