package handler

import (
	"github.com/gofiber/fiber/v2"

	"backoffice/internal/model"
	"backoffice/internal/service"
)

// ListArtists godoc
// @Summary List artists
// @Tags artists
// @Produce json
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} service.ListResult[model.Artist]
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/artists [get]
func ListArtists(svc service.ArtistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetArtist(svc service.ArtistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		a, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(a)
	}
}

// CreateArtist godoc
// @Summary Create an artist
// @Tags artists
// @Accept json
// @Produce json
// @Param body body service.ArtistInput true "artist"
// @Success 201 {object} model.Artist
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Security BearerAuth
// @Router /api/artists [post]
func CreateArtist(svc service.ArtistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ArtistInput
		if !bindJSON(c, &in) {
			return nil
		}
		a, err := svc.Create(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, a)
	}
}

func UpdateArtist(svc service.ArtistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		a, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(a)
	}
}

func DeleteArtist(svc service.ArtistService) fiber.Handler {
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

type restoreArtistRequest struct {
	Name string `json:"name"`
}

// RestoreArtist answers 201 when the artist had to be created and 200 when
// it already existed.
func RestoreArtist(svc service.ArtistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req restoreArtistRequest
		if !bindJSON(c, &req) {
			return nil
		}
		a, wasCreated, err := svc.Restore(c.UserContext(), req.Name, userID(c))
		if err != nil {
			return fail(c, err)
		}
		status := fiber.StatusOK
		if wasCreated {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"artist": a, "created": wasCreated})
	}
}

func ListParticipants(svc service.ParticipantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetParticipant(svc service.ParticipantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	}
}

func CreateParticipant(svc service.ParticipantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Participant
		if !bindJSON(c, &in) {
			return nil
		}
		p, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, p)
	}
}

func UpdateParticipant(svc service.ParticipantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		p, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(p)
	}
}

func DeleteParticipant(svc service.ParticipantService) fiber.Handler {
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

// ListWorks accepts an optional artist_id filter.
func ListWorks(svc service.WorkService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), c.Query("artist_id"), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetWork(svc service.WorkService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		w, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(w)
	}
}

func CreateWork(svc service.WorkService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Work
		if !bindJSON(c, &in) {
			return nil
		}
		w, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, w)
	}
}

func UpdateWork(svc service.WorkService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		w, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(w)
	}
}

func DeleteWork(svc service.WorkService) fiber.Handler {
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

func ListTemplates(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		t, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(t)
	}
}

func CreateTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Template
		if !bindJSON(c, &in) {
			return nil
		}
		t, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, t)
	}
}

func UpdateTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		t, err := svc.Update(c.UserContext(), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(t)
	}
}

func DeleteTemplate(svc service.TemplateService) fiber.Handler {
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
