package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/auco"
	"backoffice/internal/contracttpl"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/pdf"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

const (
	sourceSyncDocuments  = "sync_documents"
	sourceSyncSignatures = "sync_signatures"
	sourceWebhook        = "webhook"
	defaultPlatform      = "Email"
)

// AucoAPI is the subset of the Auco client used by the signing flows.
type AucoAPI interface {
	GetDocument(ctx context.Context, code string) (*auco.Document, error)
	ListDocuments(ctx context.Context) ([]auco.Document, error)
	Upload(ctx context.Context, req auco.UploadRequest) (string, error)
}

// SyncResult summarises one synchronisation run.
type SyncResult struct {
	TotalDocuments  int `json:"total_documents"`
	SyncedNew       int `json:"synced_new"`
	UpdatedExisting int `json:"updated_existing"`
	Errors          int `json:"errors"`
}

type StartSignatureResult struct {
	SessionCode string `json:"session_code"`
}

// WebhookRequest is the raw delivery as received over HTTP.
type WebhookRequest struct {
	Authorization string
	WebhookHeader string
	ContentType   string
	Body          []byte
}

// WebhookResult is answered with 200 unless Unauthorized is set.
type WebhookResult struct {
	Unauthorized bool           `json:"-"`
	Body         map[string]any `json:"-"`
}

type SigningConfig struct {
	OwnerEmail   string
	WebhookToken string
}

// SigningService keeps local signature rows in step with Auco and sends
// contracts out for signature.
type SigningService interface {
	// SyncDocuments refreshes the given document codes, or every locally known one when codes is empty.
	SyncDocuments(ctx context.Context, codes []string) (*SyncResult, error)
	// SyncSignatures refreshes every document listed by Auco.
	SyncSignatures(ctx context.Context) (*SyncResult, error)
	ListDocuments(ctx context.Context) ([]auco.Document, error)
	StartSignature(ctx context.Context, contractID string) (*StartSignatureResult, error)
	HandleWebhook(ctx context.Context, req WebhookRequest) WebhookResult
}

type signingService struct {
	api        AucoAPI
	renderer   pdf.Renderer
	store      storage.Storage
	contracts  repository.ContractRepository
	signatures repository.SignatureRepository
	cfg        SigningConfig
	log        *logger.Logger
	metrics    *Metrics
	now        func() time.Time
}

func NewSigningService(
	api AucoAPI,
	renderer pdf.Renderer,
	store storage.Storage,
	contracts repository.ContractRepository,
	signatures repository.SignatureRepository,
	cfg SigningConfig,
	log *logger.Logger,
	metrics *Metrics,
) SigningService {
	if log == nil {
		log = logger.Nop()
	}
	return &signingService{
		api:        api,
		renderer:   renderer,
		store:      store,
		contracts:  contracts,
		signatures: signatures,
		cfg:        cfg,
		log:        log.With("component", "signing"),
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *signingService) SyncDocuments(ctx context.Context, codes []string) (*SyncResult, error) {
	codes = cleanCodes(codes)
	if len(codes) == 0 {
		known, err := s.signatures.DistinctRequestIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list known documents: %w", err)
		}
		codes = cleanCodes(known)
	}

	res := &SyncResult{TotalDocuments: len(codes)}
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := s.api.GetDocument(ctx, code)
		if err != nil {
			s.log.Warn("fetch document failed", "code", code, "error", err)
			s.metrics.document(sourceSyncDocuments, "error")
			res.Errors++
			continue
		}
		if err := s.syncDocument(ctx, doc, res); err != nil {
			s.log.Warn("sync document failed", "code", code, "error", err)
			s.metrics.document(sourceSyncDocuments, "error")
			res.Errors++
			continue
		}
		s.metrics.document(sourceSyncDocuments, "ok")
	}
	s.log.Info("documents synced", "total", res.TotalDocuments, "new", res.SyncedNew,
		"updated", res.UpdatedExisting, "errors", res.Errors)
	return res, nil
}

func (s *signingService) SyncSignatures(ctx context.Context) (*SyncResult, error) {
	docs, err := s.api.ListDocuments(ctx)
	if err != nil {
		return nil, upstream("list auco documents: %v", err)
	}
	res := &SyncResult{}
	for i := range docs {
		doc := &docs[i]
		if len(doc.SignProfile) == 0 {
			continue
		}
		res.TotalDocuments++
		if err := s.syncDocument(ctx, doc, res); err != nil {
			s.log.Warn("sync document failed", "code", doc.DocumentCode(), "error", err)
			s.metrics.document(sourceSyncSignatures, "error")
			res.Errors++
			continue
		}
		s.metrics.document(sourceSyncSignatures, "ok")
	}
	s.log.Info("signatures synced", "total", res.TotalDocuments, "new", res.SyncedNew,
		"updated", res.UpdatedExisting, "errors", res.Errors)
	return res, nil
}

func (s *signingService) ListDocuments(ctx context.Context) ([]auco.Document, error) {
	docs, err := s.api.ListDocuments(ctx)
	if err != nil {
		return nil, upstream("list auco documents: %v", err)
	}
	return docs, nil
}

// syncDocument upserts one row per signer of doc and then checks whether the
// linked contract is fully signed.
func (s *signingService) syncDocument(ctx context.Context, doc *auco.Document, res *SyncResult) error {
	code := doc.DocumentCode()
	if code == "" {
		return errors.New("document without code")
	}
	contractID, err := s.resolveContract(ctx, code, doc.Name)
	if err != nil {
		return err
	}
	creator := strings.TrimSpace(doc.CreatorEmail)
	if creator == "" {
		creator = s.cfg.OwnerEmail
	}

	now := s.now().UTC()
	for _, signer := range doc.SignProfile {
		email := strings.ToLower(strings.TrimSpace(signer.Email))
		if email == "" {
			continue
		}
		raw := signer.Status
		if strings.TrimSpace(raw) == "" {
			raw = doc.Status
		}
		status := auco.MapStatus(raw)

		sig := &model.Signature{
			ContractID:         contractID,
			SignatureRequestID: code,
			SignerEmail:        email,
			SignerName:         auco.FlexString(signer.Name).Ptr(),
			SignerPhone:        signer.Phone.Ptr(),
			Status:             status,
			DocumentURL:        auco.FlexString(doc.DocumentURL).Ptr(),
			DocumentName:       auco.FlexString(doc.Name).Ptr(),
			CreatorEmail:       auco.FlexString(creator).Ptr(),
			SignaturePlatform:  auco.FlexString(orDefault(signer.Platform, defaultPlatform)).Ptr(),
			SignatureLocation:  firstPtr(signer.Location, signer.Address),
			ReadingTime:        signer.ReadingTime.Ptr(),
		}
		if t, err := ParseTime(signer.SignedAt); err == nil {
			sig.SignedAt = &t
		} else if status == model.SignatureCompleted {
			sig.SignedAt = &now
		}
		if status == model.SignatureCompleted {
			sig.CompletedAt = &now
		}

		inserted, err := s.signatures.Upsert(ctx, sig)
		if err != nil {
			return fmt.Errorf("upsert signer %s: %w", email, err)
		}
		if inserted {
			res.SyncedNew++
		} else {
			res.UpdatedExisting++
		}
	}

	if contractID != nil {
		s.checkCompletion(ctx, *contractID)
	}
	return nil
}

var contractRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)contrato:\s*(\S+)`),
	regexp.MustCompile(`(?i)contract:\s*(\S+)`),
	regexp.MustCompile(`#(\S+)`),
}

// ContractRefFromName extracts a contract id written into a document name.
func ContractRefFromName(name string) string {
	for _, re := range contractRefPatterns {
		m := re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		ref := strings.TrimRight(m[1], ".,;)")
		if _, err := uuid.Parse(ref); err == nil {
			return ref
		}
	}
	return ""
}

// resolveContract finds the contract a document belongs to: first by the
// stored Auco document id, then by a contract id named in the document title.
func (s *signingService) resolveContract(ctx context.Context, code, name string) (*string, error) {
	c, err := s.contracts.FindByAucoDocumentID(ctx, code)
	if err == nil {
		return &c.ID, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("resolve contract: %w", err)
	}
	ref := ContractRefFromName(name)
	if ref == "" {
		return nil, nil
	}
	ok, err := s.contracts.Exists(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve contract: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

func (s *signingService) checkCompletion(ctx context.Context, contractID string) {
	signed, err := s.contracts.MarkSignedIfComplete(ctx, contractID)
	if err != nil {
		s.log.Warn("contract completion check failed", "contract_id", contractID, "error", err)
		return
	}
	if signed {
		s.log.Info("contract fully signed", "contract_id", contractID)
	}
}

func (s *signingService) StartSignature(ctx context.Context, contractID string) (*StartSignatureResult, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, invalid("contract_id is required")
	}
	b, err := s.contracts.LoadBundle(ctx, contractID)
	if err != nil {
		return nil, mapNotFound(err, "contract")
	}
	if strings.TrimSpace(b.Template.TemplateHTML) == "" {
		return nil, invalid("template has no HTML")
	}
	owner := strings.TrimSpace(s.cfg.OwnerEmail)
	if owner == "" {
		return nil, &DetailError{Kind: ErrConfig, Message: "AUCO_OWNER_EMAIL is not configured"}
	}

	parts := b.Contract.Participants
	html := contracttpl.Render(b.Template.TemplateHTML, contracttpl.BuildData(*b, s.now())) + contracttpl.SignatureTags(parts)
	doc, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render contract pdf: %w", err)
	}
	if err := pdf.Validate(doc); err != nil {
		return nil, invalid("generated PDF is invalid: %v", err)
	}

	signers := make([]auco.SignProfile, 0, len(parts))
	for _, p := range parts {
		if p.Email == nil || strings.TrimSpace(*p.Email) == "" {
			continue
		}
		sp := auco.SignProfile{Name: p.Name, Email: strings.TrimSpace(*p.Email), Label: true}
		if p.Phone != nil {
			sp.Phone = *p.Phone
		}
		signers = append(signers, sp)
	}
	if len(signers) == 0 {
		return nil, invalid("contract has no participant with an email")
	}

	docName := "Contrato: " + b.Work.Name
	code, err := s.api.Upload(ctx, auco.UploadRequest{
		Email:        owner,
		Name:         docName,
		Subject:      "Firma de contrato: " + b.Work.Name,
		Message:      "Por favor revisa y firma el contrato de " + b.Work.Name + ".",
		Notification: true,
		Remember:     6,
		SignProfile:  signers,
		File:         base64.StdEncoding.EncodeToString(doc),
	})
	if err != nil {
		return nil, upstream("auco upload failed: %v", err)
	}
	if code == "" {
		return nil, upstream("auco did not return a document code")
	}

	key := fmt.Sprintf("contracts/%s/%s.pdf", contractID, code)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(doc), storage.PutObjectOptions{
		Size:        int64(len(doc)),
		ContentType: "application/pdf",
		Metadata:    map[string]string{"auco-document": code},
	}); err != nil {
		return nil, fmt.Errorf("store contract pdf: %w", err)
	}
	if err := s.contracts.MarkSent(ctx, contractID, code, key); err != nil {
		return nil, fmt.Errorf("mark contract sent: %w", err)
	}

	for _, sp := range signers {
		sig := &model.Signature{
			ContractID:         &contractID,
			SignatureRequestID: code,
			SignerEmail:        strings.ToLower(sp.Email),
			SignerName:         auco.FlexString(sp.Name).Ptr(),
			SignerPhone:        auco.FlexString(sp.Phone).Ptr(),
			Status:             model.SignaturePending,
			DocumentName:       &docName,
			CreatorEmail:       &owner,
			SignaturePlatform:  auco.FlexString(defaultPlatform).Ptr(),
		}
		if _, err := s.signatures.Upsert(ctx, sig); err != nil {
			s.log.Warn("create pending signature failed", "contract_id", contractID, "email", sp.Email, "error", err)
		}
	}
	s.log.Info("contract sent for signature", "contract_id", contractID, "code", code, "signers", len(signers))
	return &StartSignatureResult{SessionCode: code}, nil
}

func (s *signingService) authorized(req WebhookRequest) bool {
	token := strings.TrimSpace(s.cfg.WebhookToken)
	if token == "" {
		return false
	}
	return strings.TrimSpace(req.Authorization) == "Bearer "+token ||
		strings.TrimSpace(req.WebhookHeader) == token
}

func (s *signingService) HandleWebhook(ctx context.Context, req WebhookRequest) (out WebhookResult) {
	if !s.authorized(req) {
		s.log.Warn("webhook authorization mismatch",
			"received", logger.MaskKey(req.Authorization), "custom", logger.MaskKey(req.WebhookHeader))
		return WebhookResult{Unauthorized: true, Body: map[string]any{"error": "Missing/Invalid Authorization"}}
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("webhook panic", "panic", r)
			out = WebhookResult{Body: map[string]any{"ok": false, "error": fmt.Sprint(r)}}
		}
	}()

	body := ParseWebhookBody(req.ContentType, req.Body)
	documentID := WebhookDocumentID(body)
	status := WebhookStatus(body)
	s.log.Info("auco webhook", "document_id", documentID, "status", status)

	if documentID == "" {
		return WebhookResult{Body: map[string]any{"ok": true, "note": "no document id in payload"}}
	}

	res, err := s.applyWebhook(ctx, documentID, status, body)
	if err != nil {
		s.log.Error("webhook processing failed", "document_id", documentID, "error", err)
		s.metrics.document(sourceWebhook, "error")
		return WebhookResult{Body: map[string]any{"ok": false, "error": err.Error()}}
	}
	s.metrics.document(sourceWebhook, res["mode"].(string))
	return WebhookResult{Body: res}
}

func (s *signingService) applyWebhook(ctx context.Context, documentID, status string, body map[string]any) (map[string]any, error) {
	var docURL *string
	if status == model.SignatureCompleted {
		docURL = auco.FlexString(stringField(body, "document_url", "url")).Ptr()
	}
	resp := map[string]any{"ok": true, "documentId": documentID, "status": status}

	n, err := s.signatures.UpdateStatusByRequest(ctx, documentID, status, docURL)
	if err != nil {
		return nil, err
	}
	signers := webhookSigners(body)
	if n > 0 {
		for _, sg := range signers {
			if sg.status == "" {
				continue
			}
			if _, err := s.signatures.UpdateSignerStatus(ctx, documentID, sg.email, sg.status); err != nil {
				return nil, err
			}
		}
		s.completeContracts(ctx, documentID, status)
		resp["mode"] = "update"
		return resp, nil
	}

	c, err := s.contracts.FindByAucoDocumentID(ctx, documentID)
	if err != nil {
		if isNoRows(err) {
			s.log.Warn("webhook contract not resolved", "document_id", documentID, "status", status)
			return map[string]any{
				"ok": false, "documentId": documentID, "status": status,
				"reason": "contract_not_resolved", "mode": "unresolved",
			}, nil
		}
		return nil, err
	}

	if len(signers) == 0 && strings.TrimSpace(s.cfg.OwnerEmail) != "" {
		signers = []webhookSigner{{email: strings.ToLower(strings.TrimSpace(s.cfg.OwnerEmail))}}
	}
	now := s.now().UTC()
	for _, sg := range signers {
		st := sg.status
		if st == "" {
			st = status
		}
		sig := &model.Signature{
			ContractID:         &c.ID,
			SignatureRequestID: documentID,
			SignerEmail:        sg.email,
			Status:             st,
			DocumentURL:        docURL,
		}
		if st == model.SignatureCompleted {
			sig.CompletedAt = &now
			sig.SignedAt = &now
		}
		if _, err := s.signatures.Upsert(ctx, sig); err != nil {
			return nil, err
		}
	}
	s.completeContracts(ctx, documentID, status)
	resp["mode"] = "insert"
	return resp, nil
}

func (s *signingService) completeContracts(ctx context.Context, documentID, status string) {
	if status != model.SignatureCompleted && status != model.SignatureSigned {
		return
	}
	ids, err := s.signatures.ContractIDsByRequest(ctx, documentID)
	if err != nil {
		s.log.Warn("list contracts for document failed", "document_id", documentID, "error", err)
		return
	}
	for _, id := range ids {
		s.checkCompletion(ctx, id)
	}
}

// ParseWebhookBody decodes a JSON or form-encoded delivery. Anything else is
// kept under "_raw"; an empty body is a ping and yields an empty map.
func ParseWebhookBody(contentType string, raw []byte) map[string]any {
	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "application/json"):
		if err := json.Unmarshal(raw, &body); err != nil {
			return map[string]any{"_raw": string(raw), "_jsonError": err.Error()}
		}
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return map[string]any{"_raw": string(raw)}
		}
		for k := range vals {
			body[k] = vals.Get(k)
		}
	default:
		body["_raw"] = string(raw)
		body["_contentType"] = ct
	}
	return body
}

// WebhookDocumentID finds the document code in document, document.id, code or document_code.
func WebhookDocumentID(body map[string]any) string {
	switch d := body["document"].(type) {
	case string:
		if v := strings.TrimSpace(d); v != "" {
			return v
		}
	case map[string]any:
		if id, ok := d["id"].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return stringField(body, "code", "document_code")
}

// WebhookStatus normalises the event or status of a delivery.
func WebhookStatus(body map[string]any) string {
	var raw string
	if ev, ok := body["event"].(map[string]any); ok {
		raw, _ = ev["type"].(string)
	}
	if strings.TrimSpace(raw) == "" {
		raw = stringField(body, "event", "status", "type")
	}
	return NormalizeEventStatus(raw)
}

// NormalizeEventStatus folds an Auco event name into a local signature status.
func NormalizeEventStatus(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return model.SignatureUnknown
	case strings.Contains(v, "completed"):
		return model.SignatureCompleted
	case strings.Contains(v, "signed"):
		return model.SignatureSigned
	case strings.Contains(v, "viewed"), strings.Contains(v, "opened"):
		return model.SignatureViewed
	case strings.Contains(v, "sent"):
		return model.SignatureSent
	case strings.Contains(v, "rejected"), strings.Contains(v, "declined"):
		return model.SignatureRejected
	case strings.Contains(v, "expired"):
		return model.SignatureExpired
	}
	return v
}

type webhookSigner struct {
	email  string
	status string
}

func webhookSigners(body map[string]any) []webhookSigner {
	list, _ := body["signers"].([]any)
	out := make([]webhookSigner, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		email := strings.ToLower(stringField(m, "email"))
		if email == "" {
			continue
		}
		sg := webhookSigner{email: email}
		if st := stringField(m, "status", "event"); st != "" {
			sg.status = NormalizeEventStatus(st)
		}
		out = append(out, sg)
	}
	return out
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstPtr(vals ...string) *string {
	for _, v := range vals {
		if p := auco.FlexString(v).Ptr(); p != nil {
			return p
		}
	}
	return nil
}

func cleanCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
