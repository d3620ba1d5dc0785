package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice/internal/auth"
	"backoffice/internal/http/middleware"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	serviceMocks "backoffice/internal/service/mocks"
)

const testUser = "5b1f6c1e-3c1a-4c55-9b0e-0f8f6a1d2c3b"

// newTestApp mirrors the production middleware order and authenticates every
// request as testUser.
func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, testUser)
		return c.Next()
	})
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantDetail string
	}{
		{"validation", &service.DetailError{Kind: service.ErrValidation, Message: "name is required"}, 400, "VALIDATION_ERROR", "validation failed", "name is required"},
		{"validation with code", &service.DetailError{Kind: service.ErrValidation, Code: "UNKNOWN_REPORT_FORMAT", Message: "unrecognised header"}, 400, "UNKNOWN_REPORT_FORMAT", "validation failed", "unrecognised header"},
		{"not found", &service.DetailError{Kind: service.ErrNotFound, Message: "contract not found"}, 404, "NOT_FOUND", "contract not found", ""},
		{"bare not found", service.ErrNotFound, 404, "NOT_FOUND", "resource not found", ""},
		{"transition", &service.DetailError{Kind: service.ErrInvalidTransition, Message: "signed -> draft"}, 409, "INVALID_TRANSITION", "invalid status transition", "signed -> draft"},
		{"conflict", &service.DetailError{Kind: service.ErrConflict, Message: "artist \"Rosa\" already exists"}, 409, "CONFLICT", "resource already exists", "artist \"Rosa\" already exists"},
		{"password", service.ErrTrackPassword, 401, "PASSWORD_REQUIRED", "unauthorized", "a valid password is required"},
		{"expired", service.ErrTrackExpired, 403, "TRACK_EXPIRED", "forbidden", "this link has expired"},
		{"unprocessable", &service.DetailError{Kind: service.ErrUnprocessable, Code: "ARTIST_NOT_FOUND", Message: "no artist"}, 422, "ARTIST_NOT_FOUND", "request cannot be processed", "no artist"},
		{"upstream", &service.DetailError{Kind: service.ErrUpstream, Code: "MUSO_429", Message: "rate limited"}, 502, "MUSO_429", "upstream service error", "rate limited"},
		{"config", &service.DetailError{Kind: service.ErrConfig, Message: "AUCO_OWNER_EMAIL is not configured"}, 500, "CONFIG_ERROR", "service is not configured", "AUCO_OWNER_EMAIL is not configured"},
		{"wrapped sentinel", errors.Join(errors.New("load"), service.ErrNotFound), 404, "NOT_FOUND", "resource not found", ""},
		{"internal", errors.New("pq: password authentication failed"), 500, "INTERNAL_ERROR", "internal server error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/x", func(c *fiber.Ctx) error { return fail(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.Equal(t, tt.wantDetail, body.Error.Details)
			assert.Equal(t, resp.Header.Get(middleware.RequestIDHeader), body.RequestID)
		})
	}
}

func TestListArtists(t *testing.T) {
	mockSvc := new(serviceMocks.MockArtistService)
	app := newTestApp()
	app.Get("/api/artists", ListArtists(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 20).Return(&service.ListResult[model.Artist]{
			Items: []model.Artist{{ID: uuid.NewString(), Name: "Rosa"}},
			Total: 21,
		}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists?limit=10&offset=20", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ListResult[model.Artist]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 21, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("defaults are left to the service", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 0, 0).Return(&service.ListResult[model.Artist]{Items: []model.Artist{}}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists?limit=abc", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists?offset=-x", nil))
		require.NoError(t, err)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 0, 0).Return(nil, errors.New("service error")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestArtistHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockArtistService)
	app := newTestApp()
	app.Post("/api/artists", CreateArtist(mockSvc))
	app.Post("/api/artists/restore", RestoreArtist(mockSvc))
	app.Get("/api/artists/:id", GetArtist(mockSvc))
	app.Patch("/api/artists/:id", UpdateArtist(mockSvc))
	app.Delete("/api/artists/:id", DeleteArtist(mockSvc))

	t.Run("create passes the caller", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, testUser, service.ArtistInput{Name: "Rosa", Genre: "Pop"}).
			Return(&model.Artist{ID: "a1", Name: "Rosa"}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/artists", map[string]string{"name": "Rosa", "genre": "Pop"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("create without body", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/artists", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("create with malformed json", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/artists", `{"name":`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("restore existing answers 200", func(t *testing.T) {
		mockSvc.On("Restore", mock.Anything, "Rosa", testUser).Return(&model.Artist{ID: "a1"}, false, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/artists/restore", map[string]string{"name": "Rosa"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["created"])
	})

	t.Run("restore missing answers 201", func(t *testing.T) {
		mockSvc.On("Restore", mock.Anything, "Luis", testUser).Return(&model.Artist{ID: "a2"}, true, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/artists/restore", map[string]string{"name": "Luis"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("get not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, &service.DetailError{Kind: service.ErrNotFound, Message: "artist not found"}).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		assert.Equal(t, "artist not found", res.Error.Message)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists/invalid-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("patch keeps explicit nulls", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Update", mock.Anything, id, map[string]any{"bio": nil, "genre": "Salsa"}).
			Return(&model.Artist{ID: id, Genre: "Salsa"}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/artists/"+id, `{"bio":null,"genre":"Salsa"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/artists/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestContractHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockContractService)
	app := newTestApp()
	app.Patch("/api/contracts/:id", UpdateContract(mockSvc))
	app.Get("/api/contracts/:id/render", RenderContract(mockSvc))
	app.Get("/api/contract-participants", ListContractParticipants(mockSvc))
	app.Post("/api/contract-participants", AddContractParticipant(mockSvc))

	id := uuid.NewString()

	t.Run("invalid transition is a conflict", func(t *testing.T) {
		status := model.ContractDraft
		mockSvc.On("Update", mock.Anything, id, service.ContractPatch{Status: &status}).
			Return(nil, &service.DetailError{Kind: service.ErrInvalidTransition, Message: "cannot move from signed to draft"}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/contracts/"+id, map[string]string{"status": status}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "INVALID_TRANSITION", res.Error.Code)
		assert.Equal(t, "cannot move from signed to draft", res.Error.Details)
	})

	t.Run("render is html", func(t *testing.T) {
		mockSvc.On("Render", mock.Anything, id).Return("<h1>Contrato</h1>", nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contracts/"+id+"/render", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<h1>Contrato</h1>", string(body))
	})

	t.Run("participants need a contract id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contract-participants", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("add participant over 100 percent", func(t *testing.T) {
		pct := 60.0
		in := service.ContractParticipantInput{ContractID: id, ParticipantID: "p1", Percentage: &pct}
		mockSvc.On("AddParticipant", mock.Anything, in).
			Return(nil, &service.DetailError{Kind: service.ErrValidation, Message: "percentages would add up to 120"}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/contract-participants", in))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "percentages would add up to 120", decodeError(t, resp).Error.Details)
	})
}

func TestSignatureHandlers(t *testing.T) {
	sigs := new(serviceMocks.MockSignatureService)
	signing := new(serviceMocks.MockSigningService)
	app := newTestApp()
	app.Get("/api/signatures", ListSignatures(sigs))
	app.Post("/api/auco/sync-documents", SyncDocuments(signing))
	app.Post("/api/auco/start-signature", StartSignature(signing))

	t.Run("list filters", func(t *testing.T) {
		f := repository.SignatureFilter{ContractID: "c1", Status: "pending", IncludeArchived: true}
		sigs.On("List", mock.Anything, f, 0, 0).Return(&service.ListResult[model.Signature]{}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/signatures?contract_id=c1&status=pending&include_archived=true", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		sigs.AssertExpectations(t)
	})

	t.Run("bad include_archived", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/signatures?include_archived=maybe", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("sync without body syncs everything", func(t *testing.T) {
		signing.On("SyncDocuments", mock.Anything, []string(nil)).Return(&service.SyncResult{TotalDocuments: 3}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auco/sync-documents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var res service.SyncResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 3, res.TotalDocuments)
	})

	t.Run("sync given codes", func(t *testing.T) {
		signing.On("SyncDocuments", mock.Anything, []string{"ABC", "DEF"}).Return(&service.SyncResult{TotalDocuments: 2}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auco/sync-documents", map[string]any{"codes": []string{"ABC", "DEF"}}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		signing.AssertExpectations(t)
	})

	t.Run("start signature upstream failure", func(t *testing.T) {
		signing.On("StartSignature", mock.Anything, "c9").
			Return(nil, &service.DetailError{Kind: service.ErrUpstream, Message: "auco upload failed: 500"}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auco/start-signature", map[string]string{"contract_id": "c9"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "UPSTREAM_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestAucoWebhook(t *testing.T) {
	signing := new(serviceMocks.MockSigningService)
	app := newTestApp()
	app.Post("/webhooks/auco-signatures", AucoWebhook(signing))
	app.Get("/webhooks/auco-signatures", AucoWebhookInfo())

	t.Run("headers and body reach the service", func(t *testing.T) {
		payload := `{"code":"DOC1","status":"finished"}`
		signing.On("HandleWebhook", mock.Anything, service.WebhookRequest{
			WebhookHeader: "s3cret",
			ContentType:   "application/json",
			Body:          []byte(payload),
		}).Return(service.WebhookResult{Body: map[string]any{"ok": true, "mode": "update"}}).Once()

		req := jsonRequest(http.MethodPost, "/webhooks/auco-signatures", payload)
		req.Header.Set(AucoWebhookHeader, "s3cret")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "update", body["mode"])
		signing.AssertExpectations(t)
	})

	t.Run("unauthorized", func(t *testing.T) {
		signing.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(service.WebhookResult{Unauthorized: true, Body: map[string]any{"error": "Missing/Invalid Authorization"}}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/webhooks/auco-signatures", `{}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("processing failure still 200", func(t *testing.T) {
		signing.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(service.WebhookResult{Body: map[string]any{"ok": false, "error": "db down"}}).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/webhooks/auco-signatures", `{"code":"X"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("info", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhooks/auco-signatures", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAucoVerificationWebhook(t *testing.T) {
	verification := new(serviceMocks.MockVerificationService)
	app := newTestApp()
	app.Post("/webhooks/auco", AucoVerificationWebhook(verification))
	payload := `{"event":"verification.updated","data":{"verification_id":"ver_1","status":"verified"}}`

	t.Run("signature and raw body reach the service", func(t *testing.T) {
		verification.On("HandleWebhook", mock.Anything, "abc123", []byte(payload)).
			Return(&service.VerificationResult{Received: true, VerificationID: "ver_1", Status: "verified", Updated: 1}, nil).Once()

		req := jsonRequest(http.MethodPost, "/webhooks/auco", payload)
		req.Header.Set(AucoSignatureHeader, "abc123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.VerificationResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Received)
		assert.Equal(t, int64(1), body.Updated)
		verification.AssertExpectations(t)
	})

	t.Run("bad signature is 401", func(t *testing.T) {
		verification.On("HandleWebhook", mock.Anything, "forged", mock.Anything).Return(nil, service.ErrVerificationSignature).Once()

		req := jsonRequest(http.MethodPost, "/webhooks/auco", payload)
		req.Header.Set(AucoSignatureHeader, "forged")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_SIGNATURE", decodeError(t, resp).Error.Code)
	})

	t.Run("missing secret is 500", func(t *testing.T) {
		verification.On("HandleWebhook", mock.Anything, "", mock.Anything).Return(nil, service.ErrVerificationSecret).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/webhooks/auco", payload))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "WEBHOOK_SECRET_MISSING", decodeError(t, resp).Error.Code)
	})
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadRoyaltyReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoyaltyService)
	app := newTestApp()
	app.Post("/api/royalty-reports", UploadRoyaltyReport(mockSvc))
	app.Get("/api/royalty-reports/:id", GetRoyaltyReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"artist_id": "a9"}, "q1.csv", "song_title,platform,country,revenue\n")
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.ReportUpload) bool {
			raw, _ := io.ReadAll(in.Body)
			return in.UserID == testUser && in.ArtistID == "a9" && in.FileName == "q1.csv" && strings.HasPrefix(string(raw), "song_title")
		})).Return(&service.ReportUploadResult{Kind: model.ReportKindRoyalty, Rows: 0}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/royalty-reports", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/royalty-reports", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("unknown artist is 422", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "q1.csv", "x")
		mockSvc.On("Upload", mock.Anything, mock.Anything).
			Return(nil, &service.DetailError{Kind: service.ErrUnprocessable, Code: "ARTIST_NOT_FOUND", Message: "no artist profile for this user"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/royalty-reports", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "ARTIST_NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("get is scoped to the caller", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, testUser, id).
			Return(nil, &service.DetailError{Kind: service.ErrNotFound, Message: "report not found"}).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/royalty-reports/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestTrackHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockTrackService)
	app := newTestApp()
	app.Post("/api/tracks", CreateTrack(mockSvc))
	app.Get("/api/tracks/:id/analytics", TrackAnalytics(mockSvc))
	app.Get("/listen/:code", PublicTrack(mockSvc))
	app.Post("/listen/:code/plays", RecordPlay(mockSvc))

	t.Run("create maps form fields", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{
			"track_name": "Luz", "artist_name": "Rosa", "max_plays": "50", "is_public": "false",
			"expires_at": "2024-12-31", "password": "hunter2",
		}, "luz.mp3", "ID3")
		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.TrackUpload) bool {
			return in.UserID == testUser && in.TrackName == "Luz" && *in.MaxPlays == 50 && !*in.IsPublic &&
				in.ExpiresAt.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) &&
				in.Password == "hunter2" && in.FileName == "luz.mp3" && in.AlbumName == nil
		})).Return(&model.ShareableTrack{ID: "t1", ShareCode: "abc123"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/tracks", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("create rejects bad numbers", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"track_name": "Luz", "max_plays": "many"}, "luz.mp3", "ID3")
		req := httptest.NewRequest(http.MethodPost, "/api/tracks", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "INVALID_FIELD", res.Error.Code)
		assert.Equal(t, "invalid max_plays", res.Error.Message)
	})

	t.Run("public track password from header", func(t *testing.T) {
		mockSvc.On("GetPublic", mock.Anything, "abc123", "hunter2").Return(&service.PublicTrack{ID: "t1", AudioURL: "https://cdn/x"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/listen/abc123", nil)
		req.Header.Set(TrackPasswordHeader, "hunter2")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("public track needs password", func(t *testing.T) {
		mockSvc.On("GetPublic", mock.Anything, "abc123", "").Return(nil, service.ErrTrackPassword).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/listen/abc123", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "PASSWORD_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("play takes referer header", func(t *testing.T) {
		mockSvc.On("RecordPlay", mock.Anything, "abc123", mock.MatchedBy(func(in service.PlayInput) bool {
			return in.SessionID == "s1" && in.Referrer != nil && *in.Referrer == "https://ig.me/x"
		})).Return(nil).Once()

		req := jsonRequest(http.MethodPost, "/listen/abc123/plays", map[string]any{"session_id": "s1", "event_type": "play"})
		req.Header.Set("Referer", "https://ig.me/x")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("analytics dates", func(t *testing.T) {
		id := uuid.NewString()
		from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
		mockSvc.On("Analytics", mock.Anything, testUser, id, from, to).Return(&model.TrackAnalytics{}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tracks/"+id+"/analytics?from=2024-06-01&to=2024-06-30T12:00:00Z", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("analytics bad date", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tracks/"+uuid.NewString()+"/analytics?from=yesterday", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_DATE", decodeError(t, resp).Error.Code)
	})
}

func TestIngestAudioEvents(t *testing.T) {
	mockSvc := new(serviceMocks.MockAudioService)
	app := newTestApp()
	app.Post("/api/audio-events", IngestAudioEvents(mockSvc))

	t.Run("single event", func(t *testing.T) {
		mockSvc.On("Ingest", mock.Anything, testUser, []service.AudioEventInput{{SessionID: "s", TrackID: "t", EventType: "play"}}).
			Return(&service.AudioIngestResult{Received: 1, Stored: 1}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/audio-events", `{"session_id":"s","track_id":"t","event_type":"play"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("batch", func(t *testing.T) {
		mockSvc.On("Ingest", mock.Anything, testUser, mock.MatchedBy(func(evs []service.AudioEventInput) bool {
			return len(evs) == 2 && evs[1].EventType == "pause"
		})).Return(&service.AudioIngestResult{Received: 2, Stored: 2}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/audio-events",
			`{"events":[{"session_id":"s","track_id":"t","event_type":"play"},{"session_id":"s","track_id":"t","event_type":"pause"}]}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not json", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/audio-events", `[1,2`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCollabHandlers(t *testing.T) {
	chat := new(serviceMocks.MockChatService)
	cal := new(serviceMocks.MockCalendarService)
	fin := new(serviceMocks.MockFinanceService)
	muso := new(serviceMocks.MockMusoService)
	app := newTestApp()
	app.Post("/api/projects/:projectId/messages", SendMessage(chat))
	app.Post("/api/projects/:projectId/messages/read", MarkMessagesRead(chat))
	app.Get("/api/events", ListEvents(cal))
	app.Get("/api/finance/summary", FinanceSummary(fin))
	app.Get("/api/muso/credits", MusoCredits(muso))

	t.Run("send message", func(t *testing.T) {
		chat.On("Send", mock.Anything, "p1", testUser, service.ChatInput{Content: "hola"}).
			Return(&model.ChatMessage{ID: "m1", Content: "hola"}, nil).Once()

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/projects/p1/messages", map[string]string{"content": "hola"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("mark read", func(t *testing.T) {
		chat.On("MarkRead", mock.Anything, "p1", testUser).Return(int64(3), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/projects/p1/messages/read", nil))
		require.NoError(t, err)
		var body map[string]int
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 3, body["updated"])
	})

	t.Run("events are scoped to the caller", func(t *testing.T) {
		cal.On("List", mock.Anything, repository.EventFilter{
			UserID: testUser, ArtistID: "a1", From: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		}).Return([]model.CalendarEvent{}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events?artist_id=a1&from=2024-09-01", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		cal.AssertExpectations(t)
	})

	t.Run("finance summary", func(t *testing.T) {
		fin.On("Summary", mock.Anything, repository.FinanceFilter{UserID: testUser}).
			Return(&model.FinanceSummary{TotalIncome: 10, Net: 10, ByCategory: []model.CategoryTotal{}}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("muso credits pass through raw json", func(t *testing.T) {
		muso.On("Credits", mock.Anything, "prof-1", 20, 0).Return(json.RawMessage(`{"data":{"items":[]}}`), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/muso/credits?profile_id=prof-1&limit=20", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"data":{"items":[]}}`, string(body))
	})
}

func TestRouting(t *testing.T) {
	verifier, err := auth.NewVerifier("s3cret", "")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	artists := new(serviceMocks.MockArtistService)
	RegisterRoutes(app, Deps{
		Verifier: verifier,
		Gatherer: prometheus.NewRegistry(),
		Artists:  artists,
	})

	t.Run("not found route", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("health without database", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("api requires a token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/artists", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("api with token", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   testUser,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := tok.SignedString([]byte("s3cret"))
		require.NoError(t, err)
		artists.On("List", mock.Anything, 0, 0).Return(&service.ListResult[model.Artist]{Items: []model.Artist{}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/artists", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		artists.AssertExpectations(t)
	})

	t.Run("unwired services are not mounted", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/listen/abc", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
