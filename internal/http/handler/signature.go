package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"backoffice/internal/repository"
	"backoffice/internal/service"
)

// AucoWebhookHeader carries the shared secret when the sender cannot set
// an Authorization header.
const AucoWebhookHeader = "X-Auco-Webhook"

// AucoSignatureHeader carries the hex HMAC-SHA256 of the raw body on
// identity verification callbacks.
const AucoSignatureHeader = "X-Auco-Signature"

// ListSignatures filters by contract_id and status. Archived rows are
// hidden unless include_archived=true.
func ListSignatures(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		f := repository.SignatureFilter{
			ContractID: c.Query("contract_id"),
			Status:     c.Query("status"),
		}
		if v := c.Query("include_archived"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "include_archived must be a boolean")
			}
			f.IncludeArchived = b
		}
		res, err := svc.List(c.UserContext(), f, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		s, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

func CreateSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SignatureInput
		if !bindJSON(c, &in) {
			return nil
		}
		s, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, s)
	}
}

func UpdateSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var p service.SignaturePatch
		if !bindJSON(c, &p) {
			return nil
		}
		s, err := svc.Update(c.UserContext(), id, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	}
}

func DeleteSignature(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SignatureStats(svc service.SignatureService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

type startSignatureRequest struct {
	ContractID string `json:"contract_id"`
}

// StartSignature godoc
// @Summary Render a contract to PDF and send it to Auco for signing
// @Tags auco
// @Accept json
// @Produce json
// @Param body body startSignatureRequest true "contract"
// @Success 201 {object} service.StartSignatureResult
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Security BearerAuth
// @Router /api/auco/start-signature [post]
func StartSignature(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startSignatureRequest
		if !bindJSON(c, &req) {
			return nil
		}
		res, err := svc.StartSignature(c.UserContext(), req.ContractID)
		if err != nil {
			return fail(c, err)
		}
		return created(c, res)
	}
}

type syncDocumentsRequest struct {
	Codes []string `json:"codes"`
}

// SyncDocuments refreshes the given codes, or every known document when the
// body is empty.
func SyncDocuments(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req syncDocumentsRequest
		if len(c.Body()) > 0 && !bindJSON(c, &req) {
			return nil
		}
		res, err := svc.SyncDocuments(c.UserContext(), req.Codes)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func SyncSignatures(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.SyncSignatures(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func ListAucoDocuments(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.ListDocuments(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	}
}

// AucoWebhook godoc
// @Summary Auco signature events
// @Description Authenticated with Authorization: Bearer <secret> or X-Auco-Webhook: <secret>.
// @Description Processing failures still answer 200 with ok=false.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /webhooks/auco-signatures [post]
func AucoWebhook(svc service.SigningService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.HandleWebhook(c.UserContext(), service.WebhookRequest{
			Authorization: c.Get(fiber.HeaderAuthorization),
			WebhookHeader: c.Get(AucoWebhookHeader),
			ContentType:   c.Get(fiber.HeaderContentType),
			Body:          append([]byte(nil), c.Body()...),
		})
		status := fiber.StatusOK
		if res.Unauthorized {
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(res.Body)
	}
}

// AucoWebhookInfo lets the vendor verify the endpoint is reachable.
func AucoWebhookInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "endpoint": "auco webhook", "methods": []string{fiber.MethodPost}})
	}
}

// AucoVerificationWebhook godoc
// @Summary Auco identity verification events
// @Description Signed with X-Auco-Signature: hex HMAC-SHA256 of the raw body keyed by AUCO_WEBHOOK_SECRET.
// @Description Sets verification_status on the participant with the matching auco_verification_id.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} service.VerificationResult
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /webhooks/auco [post]
func AucoVerificationWebhook(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.HandleWebhook(c.UserContext(), c.Get(AucoSignatureHeader), append([]byte(nil), c.Body()...))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}
