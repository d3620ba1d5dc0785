package handler

import (
	"github.com/gofiber/fiber/v2"

	"backoffice/internal/service"
)

// MusoCredits proxies a page of Muso.AI credits for profile_id.
func MusoCredits(svc service.MusoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		raw, err := svc.Credits(c.UserContext(), c.Query("profile_id"), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		c.Type("json")
		return c.Send(raw)
	}
}

type musoLinkRequest struct {
	ArtistID      string `json:"artist_id"`
	MusoProfileID string `json:"muso_profile_id"`
}

func LinkMusoProfile(svc service.MusoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req musoLinkRequest
		if !bindJSON(c, &req) {
			return nil
		}
		p, err := svc.Link(c.UserContext(), req.ArtistID, req.MusoProfileID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	}
}

// SyncMuso refreshes every linked profile. Per-profile failures are part of
// the 200 body.
func SyncMuso(svc service.MusoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Sync(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}
