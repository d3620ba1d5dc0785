package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"backoffice/internal/service"
)

// ListContracts godoc
// @Summary List contracts with work and template names
// @Tags contracts
// @Produce json
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} service.ListResult[model.Contract]
// @Security BearerAuth
// @Router /api/contracts [get]
func ListContracts(svc service.ContractService) fiber.Handler {
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

func GetContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		ct, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ct)
	}
}

// CreateContract godoc
// @Summary Create a contract and its participant shares
// @Description Shares must add up to 100 when any are given.
// @Tags contracts
// @Accept json
// @Produce json
// @Param body body service.ContractInput true "contract"
// @Success 201 {object} model.Contract
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/contracts [post]
func CreateContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ContractInput
		if !bindJSON(c, &in) {
			return nil
		}
		ct, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, ct)
	}
}

// UpdateContract godoc
// @Summary Change status and/or replace participants
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param body body service.ContractPatch true "patch"
// @Success 200 {object} model.Contract
// @Failure 409 {object} errorPayload "invalid status transition"
// @Security BearerAuth
// @Router /api/contracts/{id} [patch]
func UpdateContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var p service.ContractPatch
		if !bindJSON(c, &p) {
			return nil
		}
		ct, err := svc.Update(c.UserContext(), id, p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ct)
	}
}

func DeleteContract(svc service.ContractService) fiber.Handler {
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

// ContractStatus returns the contract status with its signature rows.
func ContractStatus(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		v, err := svc.Status(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

// RenderContract returns the filled template as text/html.
func RenderContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		html, err := svc.Render(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		c.Type("html", "utf-8")
		return c.SendString(html)
	}
}

func ListContractParticipants(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contractID := c.Query("contract_id")
		if _, err := uuid.Parse(contractID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "contract_id is required")
		}
		parts, err := svc.ListParticipants(c.UserContext(), contractID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": parts})
	}
}

// AddContractParticipant links a participant and returns the full list.
func AddContractParticipant(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ContractParticipantInput
		if !bindJSON(c, &in) {
			return nil
		}
		parts, err := svc.AddParticipant(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": parts})
	}
}
