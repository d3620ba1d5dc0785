package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice/internal/auco"
	"backoffice/internal/model"
	repoMocks "backoffice/internal/repository/mocks"
	"backoffice/internal/storage"
	storeMocks "backoffice/internal/storage/mocks"
)

const contractUUID = "8f14e45f-ceea-467f-a0e6-0d2a3c1b5e77"

type fakeAuco struct {
	docs     map[string]*auco.Document
	list     []auco.Document
	listErr  error
	uploaded []auco.UploadRequest
	code     string
	upErr    error
}

func (f *fakeAuco) GetDocument(_ context.Context, code string) (*auco.Document, error) {
	d, ok := f.docs[code]
	if !ok {
		return nil, &auco.APIError{Method: "GET", URL: "/document", Status: 404, Body: "not found"}
	}
	return d, nil
}

func (f *fakeAuco) ListDocuments(context.Context) ([]auco.Document, error) {
	return f.list, f.listErr
}

func (f *fakeAuco) Upload(_ context.Context, req auco.UploadRequest) (string, error) {
	f.uploaded = append(f.uploaded, req)
	return f.code, f.upErr
}

type fakeRenderer struct {
	out []byte
	err error
}

func (fakeRenderer) Name() string { return "fake" }

func (r fakeRenderer) Render(context.Context, string) ([]byte, error) { return r.out, r.err }

func validPDF() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	b.WriteString(strings.Repeat("0", 1100))
	b.WriteString("\n%%EOF\n")
	return b.Bytes()
}

type signingMocks struct {
	api        *fakeAuco
	store      *storeMocks.MockStorage
	contracts  *repoMocks.MockContractRepository
	signatures *repoMocks.MockSignatureRepository
	reg        *prometheus.Registry
}

func newSigningService(t *testing.T, cfg SigningConfig, renderer fakeRenderer) (*signingService, signingMocks) {
	t.Helper()
	m := signingMocks{
		api:        &fakeAuco{docs: map[string]*auco.Document{}},
		store:      new(storeMocks.MockStorage),
		contracts:  new(repoMocks.MockContractRepository),
		signatures: new(repoMocks.MockSignatureRepository),
		reg:        prometheus.NewRegistry(),
	}
	metrics, err := NewMetrics(m.reg)
	require.NoError(t, err)
	svc := NewSigningService(m.api, renderer, m.store, m.contracts, m.signatures, cfg, nil, metrics).(*signingService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, m
}

func TestNormalizeEventStatus(t *testing.T) {
	tests := map[string]string{
		"":                   model.SignatureUnknown,
		"document.completed": model.SignatureCompleted,
		"SIGNER_SIGNED":      model.SignatureSigned,
		"document.viewed":    model.SignatureViewed,
		"email_opened":       model.SignatureViewed,
		"document.sent":      model.SignatureSent,
		"signer.rejected":    model.SignatureRejected,
		"declined":           model.SignatureRejected,
		"document.expired":   model.SignatureExpired,
		"Custom":             "custom",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeEventStatus(in), in)
	}
}

func TestWebhookDocumentID(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"document string", map[string]any{"document": " ABC "}, "ABC"},
		{"document object", map[string]any{"document": map[string]any{"id": "DEF"}}, "DEF"},
		{"code", map[string]any{"code": "GHI"}, "GHI"},
		{"document_code", map[string]any{"document_code": "JKL"}, "JKL"},
		{"blank document falls back", map[string]any{"document": "", "code": "MNO"}, "MNO"},
		{"none", map[string]any{"foo": "bar"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WebhookDocumentID(tt.body))
		})
	}
}

func TestWebhookStatus(t *testing.T) {
	assert.Equal(t, model.SignatureCompleted, WebhookStatus(map[string]any{"event": map[string]any{"type": "document.completed"}}))
	assert.Equal(t, model.SignatureSigned, WebhookStatus(map[string]any{"event": "signed"}))
	assert.Equal(t, model.SignatureRejected, WebhookStatus(map[string]any{"status": "rejected"}))
	assert.Equal(t, model.SignatureUnknown, WebhookStatus(map[string]any{}))
}

func TestParseWebhookBody(t *testing.T) {
	assert.Empty(t, ParseWebhookBody("application/json", []byte("  ")))

	body := ParseWebhookBody("application/json; charset=utf-8", []byte(`{"code":"X1","status":"signed"}`))
	assert.Equal(t, "X1", body["code"])

	body = ParseWebhookBody("application/x-www-form-urlencoded", []byte("code=X2&status=completed"))
	assert.Equal(t, "X2", body["code"])
	assert.Equal(t, "completed", body["status"])

	body = ParseWebhookBody("application/json", []byte("{broken"))
	assert.Equal(t, "{broken", body["_raw"])
	assert.Contains(t, body, "_jsonError")

	body = ParseWebhookBody("text/plain", []byte("hello"))
	assert.Equal(t, "hello", body["_raw"])
	assert.Equal(t, "text/plain", body["_contentType"])
}

func TestContractRefFromName(t *testing.T) {
	tests := map[string]string{
		"Contrato: " + contractUUID:          contractUUID,
		"contract:" + contractUUID + ".":     contractUUID,
		"Firma #" + contractUUID:             contractUUID,
		"Contrato: Mi Canción":               "",
		"Split sheet (" + contractUUID + ")": "",
		"":                                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ContractRefFromName(in), in)
	}
}

func TestSigningService_SyncDocuments(t *testing.T) {
	ctx := context.Background()
	svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{})

	m.api.docs["DOC1"] = &auco.Document{
		Code:   "DOC1",
		Name:   "Contrato: " + contractUUID,
		Status: "pending",
		SignProfile: []auco.Signer{
			{Name: "Ana", Email: "ANA@example.com", Status: "signed", SignedAt: "2024-05-30T10:00:00Z"},
			{Name: "Luis", Email: "luis@example.com"},
			{Name: "No mail"},
		},
	}
	m.signatures.On("DistinctRequestIDs", mock.Anything).Return([]string{"DOC1", " ", "DOC1", "GONE"}, nil)
	m.contracts.On("FindByAucoDocumentID", mock.Anything, "DOC1").Return(nil, sql.ErrNoRows)
	m.contracts.On("Exists", mock.Anything, contractUUID).Return(true, nil)
	m.signatures.On("Upsert", mock.Anything, mock.MatchedBy(func(s *model.Signature) bool {
		return s.SignerEmail == "ana@example.com"
	})).Run(func(args mock.Arguments) {
		s := args.Get(1).(*model.Signature)
		assert.Equal(t, model.SignatureCompleted, s.Status)
		assert.Equal(t, contractUUID, *s.ContractID)
		assert.Equal(t, "owner@label.test", *s.CreatorEmail)
		assert.Equal(t, "Email", *s.SignaturePlatform)
		require.NotNil(t, s.SignedAt)
		assert.Equal(t, 30, s.SignedAt.Day())
		assert.NotNil(t, s.CompletedAt)
	}).Return(true, nil)
	m.signatures.On("Upsert", mock.Anything, mock.MatchedBy(func(s *model.Signature) bool {
		return s.SignerEmail == "luis@example.com"
	})).Run(func(args mock.Arguments) {
		s := args.Get(1).(*model.Signature)
		assert.Equal(t, model.SignaturePending, s.Status)
		assert.Nil(t, s.SignedAt)
	}).Return(false, nil)
	m.contracts.On("MarkSignedIfComplete", mock.Anything, contractUUID).Return(false, nil)

	res, err := svc.SyncDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{TotalDocuments: 2, SyncedNew: 1, UpdatedExisting: 1, Errors: 1}, *res)
	m.signatures.AssertNumberOfCalls(t, "Upsert", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.syncDocuments.WithLabelValues(sourceSyncDocuments, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.syncDocuments.WithLabelValues(sourceSyncDocuments, "error")))
}

func TestSigningService_SyncSignatures(t *testing.T) {
	ctx := context.Background()

	t.Run("skips documents without signers", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{}, fakeRenderer{})
		m.api.list = []auco.Document{
			{Code: "A", Name: "draft"},
			{ID: "B", Name: "other", Status: "completed", SignProfile: []auco.Signer{{Email: "x@example.com"}}},
		}
		m.contracts.On("FindByAucoDocumentID", mock.Anything, "B").Return(&model.Contract{ID: "c-b"}, nil)
		m.signatures.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Signature")).Return(true, nil)
		m.contracts.On("MarkSignedIfComplete", mock.Anything, "c-b").Return(true, nil)

		res, err := svc.SyncSignatures(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.TotalDocuments)
		assert.Equal(t, 1, res.SyncedNew)
		m.contracts.AssertExpectations(t)
	})

	t.Run("listing failure is an upstream error", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{}, fakeRenderer{})
		m.api.listErr = errors.New("timeout")

		_, err := svc.SyncSignatures(ctx)
		assert.ErrorIs(t, err, ErrUpstream)
	})
}

func TestSigningService_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	cfg := SigningConfig{OwnerEmail: "owner@label.test", WebhookToken: "s3cret"}

	tests := []struct {
		name       string
		cfg        SigningConfig
		req        WebhookRequest
		setupMocks func(m signingMocks)
		want       WebhookResult
	}{
		{
			name: "no token configured",
			cfg:  SigningConfig{},
			req:  WebhookRequest{Authorization: "Bearer "},
			want: WebhookResult{Unauthorized: true, Body: map[string]any{"error": "Missing/Invalid Authorization"}},
		},
		{
			name: "wrong token",
			cfg:  cfg,
			req:  WebhookRequest{Authorization: "Bearer nope"},
			want: WebhookResult{Unauthorized: true, Body: map[string]any{"error": "Missing/Invalid Authorization"}},
		},
		{
			name: "ping without document",
			cfg:  cfg,
			req:  WebhookRequest{WebhookHeader: "s3cret", ContentType: "application/json"},
			want: WebhookResult{Body: map[string]any{"ok": true, "note": "no document id in payload"}},
		},
		{
			name: "updates existing rows",
			cfg:  cfg,
			req: WebhookRequest{
				Authorization: "Bearer s3cret",
				ContentType:   "application/json",
				Body:          []byte(`{"document":"D1","event":{"type":"document.completed"},"url":"https://files/D1.pdf","signers":[{"email":"Ana@Example.com","status":"signed"},{"email":"luis@example.com"}]}`),
			},
			setupMocks: func(m signingMocks) {
				url := "https://files/D1.pdf"
				m.signatures.On("UpdateStatusByRequest", mock.Anything, "D1", model.SignatureCompleted, &url).Return(int64(2), nil)
				m.signatures.On("UpdateSignerStatus", mock.Anything, "D1", "ana@example.com", model.SignatureSigned).Return(int64(1), nil)
				m.signatures.On("ContractIDsByRequest", mock.Anything, "D1").Return([]string{"c1"}, nil)
				m.contracts.On("MarkSignedIfComplete", mock.Anything, "c1").Return(true, nil)
			},
			want: WebhookResult{Body: map[string]any{"ok": true, "documentId": "D1", "status": model.SignatureCompleted, "mode": "update"}},
		},
		{
			name: "inserts rows for a known contract",
			cfg:  cfg,
			req: WebhookRequest{
				WebhookHeader: "s3cret",
				ContentType:   "application/x-www-form-urlencoded",
				Body:          []byte("code=D2&status=viewed"),
			},
			setupMocks: func(m signingMocks) {
				m.signatures.On("UpdateStatusByRequest", mock.Anything, "D2", model.SignatureViewed, (*string)(nil)).Return(int64(0), nil)
				m.contracts.On("FindByAucoDocumentID", mock.Anything, "D2").Return(&model.Contract{ID: "c2"}, nil)
				m.signatures.On("Upsert", mock.Anything, mock.MatchedBy(func(s *model.Signature) bool {
					return s.SignerEmail == "owner@label.test" && s.Status == model.SignatureViewed && *s.ContractID == "c2"
				})).Return(true, nil)
			},
			want: WebhookResult{Body: map[string]any{"ok": true, "documentId": "D2", "status": model.SignatureViewed, "mode": "insert"}},
		},
		{
			name: "unresolved contract",
			cfg:  cfg,
			req: WebhookRequest{
				Authorization: "Bearer s3cret",
				ContentType:   "application/json",
				Body:          []byte(`{"code":"D3","status":"signed"}`),
			},
			setupMocks: func(m signingMocks) {
				m.signatures.On("UpdateStatusByRequest", mock.Anything, "D3", model.SignatureSigned, (*string)(nil)).Return(int64(0), nil)
				m.contracts.On("FindByAucoDocumentID", mock.Anything, "D3").Return(nil, sql.ErrNoRows)
			},
			want: WebhookResult{Body: map[string]any{
				"ok": false, "documentId": "D3", "status": model.SignatureSigned,
				"reason": "contract_not_resolved", "mode": "unresolved",
			}},
		},
		{
			name: "database failure still answers",
			cfg:  cfg,
			req: WebhookRequest{
				Authorization: "Bearer s3cret",
				ContentType:   "application/json",
				Body:          []byte(`{"code":"D4","status":"signed"}`),
			},
			setupMocks: func(m signingMocks) {
				m.signatures.On("UpdateStatusByRequest", mock.Anything, "D4", model.SignatureSigned, (*string)(nil)).Return(int64(0), errors.New("conn reset"))
			},
			want: WebhookResult{Body: map[string]any{"ok": false, "error": "conn reset"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newSigningService(t, tt.cfg, fakeRenderer{})
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			got := svc.HandleWebhook(ctx, tt.req)
			assert.Equal(t, tt.want, got)
			m.signatures.AssertExpectations(t)
			m.contracts.AssertExpectations(t)
		})
	}
}

func TestSigningService_StartSignature(t *testing.T) {
	ctx := context.Background()
	email := "ana@example.com"
	bundle := func() *model.ContractBundle {
		return &model.ContractBundle{
			Contract: model.Contract{ID: "c1", Participants: []model.ContractParticipant{
				{ParticipantID: "p1", Name: "Ana", Email: &email, Role: "ARTISTA", Percentage: pct(60)},
				{ParticipantID: "p2", Name: "Sin correo", Role: "PRODUCTOR", Percentage: pct(40)},
			}},
			Work:     model.Work{Name: "Luz"},
			Template: model.Template{TemplateHTML: "<p>{{work.name}}</p>"},
		}
	}

	t.Run("happy path", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{out: validPDF()})
		m.api.code = "AUCO1"
		m.contracts.On("LoadBundle", mock.Anything, "c1").Return(bundle(), nil)
		m.store.On("Put", mock.Anything, "contracts/c1/AUCO1.pdf", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
			return o.ContentType == "application/pdf" && o.Size == int64(len(validPDF()))
		})).Return(func(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			b, _ := io.ReadAll(r)
			return storage.ObjectInfo{Key: key, Size: int64(len(b))}
		}, nil)
		m.contracts.On("MarkSent", mock.Anything, "c1", "AUCO1", "contracts/c1/AUCO1.pdf").Return(nil)
		m.signatures.On("Upsert", mock.Anything, mock.MatchedBy(func(s *model.Signature) bool {
			return s.SignerEmail == email && s.Status == model.SignaturePending && s.SignatureRequestID == "AUCO1"
		})).Return(true, nil)

		res, err := svc.StartSignature(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "AUCO1", res.SessionCode)
		require.Len(t, m.api.uploaded, 1)
		up := m.api.uploaded[0]
		assert.Equal(t, "owner@label.test", up.Email)
		assert.Equal(t, "Contrato: Luz", up.Name)
		require.Len(t, up.SignProfile, 1)
		assert.Equal(t, email, up.SignProfile[0].Email)
		assert.NotEmpty(t, up.File)
		m.store.AssertExpectations(t)
		m.contracts.AssertExpectations(t)
		m.signatures.AssertExpectations(t)
	})

	t.Run("owner email missing", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{}, fakeRenderer{out: validPDF()})
		m.contracts.On("LoadBundle", mock.Anything, "c1").Return(bundle(), nil)

		_, err := svc.StartSignature(ctx, "c1")
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("invalid pdf", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{out: []byte("%PDF-1.4 tiny")})
		m.contracts.On("LoadBundle", mock.Anything, "c1").Return(bundle(), nil)

		_, err := svc.StartSignature(ctx, "c1")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, m.api.uploaded)
	})

	t.Run("no signer with email", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{out: validPDF()})
		b := bundle()
		b.Contract.Participants[0].Email = nil
		m.contracts.On("LoadBundle", mock.Anything, "c1").Return(b, nil)

		_, err := svc.StartSignature(ctx, "c1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("upload failure", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{out: validPDF()})
		m.api.upErr = fmt.Errorf("auco: %w", errors.New("500"))
		m.contracts.On("LoadBundle", mock.Anything, "c1").Return(bundle(), nil)

		_, err := svc.StartSignature(ctx, "c1")
		assert.ErrorIs(t, err, ErrUpstream)
		m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown contract", func(t *testing.T) {
		svc, m := newSigningService(t, SigningConfig{OwnerEmail: "owner@label.test"}, fakeRenderer{out: validPDF()})
		m.contracts.On("LoadBundle", mock.Anything, "c404").Return(nil, sql.ErrNoRows)

		_, err := svc.StartSignature(ctx, "c404")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
