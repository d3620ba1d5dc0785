package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"backoffice/internal/chat"
	"backoffice/internal/logger"
	"backoffice/internal/repository"
	"backoffice/internal/service"
)

const sseHeartbeat = 15 * time.Second

func ListMessages(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		msgs, err := svc.List(c.UserContext(), c.Params("projectId"), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": msgs})
	}
}

// SendMessage godoc
// @Summary Post a team chat message
// @Description The message is stored and then fanned out to every stream of the project.
// @Tags chat
// @Accept json
// @Produce json
// @Param projectId path string true "project id"
// @Param body body service.ChatInput true "message"
// @Success 201 {object} model.ChatMessage
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/projects/{projectId}/messages [post]
func SendMessage(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ChatInput
		if !bindJSON(c, &in) {
			return nil
		}
		msg, err := svc.Send(c.UserContext(), c.Params("projectId"), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, msg)
	}
}

func MarkMessagesRead(svc service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.MarkRead(c.UserContext(), c.Params("projectId"), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"updated": n})
	}
}

// ChatStream serves project messages as server-sent events. Each message is
// sent as "event: message" with the JSON row as data; a comment line is
// written every 15s so proxies keep the connection open.
func ChatStream(hub *chat.Hub, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID := c.Params("projectId")
		if projectID == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "project id is required")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		client, unsubscribe := hub.Subscribe(projectID)
		user := userID(c)

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()
			log.Debug("chat stream opened", "project_id", projectID, "user_id", user)

			heartbeat := time.NewTicker(sseHeartbeat)
			defer heartbeat.Stop()

			fmt.Fprint(w, "retry: 3000\n: connected\n\n")
			if w.Flush() != nil {
				return
			}
			for {
				select {
				case msg, ok := <-client.C:
					if !ok {
						return
					}
					data, err := json.Marshal(msg)
					if err != nil {
						log.Warn("chat stream marshal failed", "error", err)
						continue
					}
					fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", msg.ID, data)
				case <-heartbeat.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				if err := w.Flush(); err != nil {
					log.Debug("chat stream closed", "project_id", projectID, "user_id", user)
					return
				}
			}
		})
		return nil
	}
}

// ListEvents returns the caller's events, optionally bounded by from/to
// and filtered by artist_id.
func ListEvents(svc service.CalendarService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, ok := queryTime(c, "from")
		if !ok {
			return nil
		}
		to, ok := queryTime(c, "to")
		if !ok {
			return nil
		}
		evs, err := svc.List(c.UserContext(), repository.EventFilter{
			UserID:   userID(c),
			ArtistID: c.Query("artist_id"),
			From:     from,
			To:       to,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": evs})
	}
}

func CreateEvent(svc service.CalendarService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.EventInput
		if !bindJSON(c, &in) {
			return nil
		}
		ev, err := svc.Create(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, ev)
	}
}

func UpdateEvent(svc service.CalendarService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		ev, err := svc.Update(c.UserContext(), userID(c), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ev)
	}
}

func DeleteEvent(svc service.CalendarService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), userID(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// financeFilter reads artist_id, from and to for the caller.
func financeFilter(c *fiber.Ctx) (repository.FinanceFilter, bool) {
	from, ok := queryTime(c, "from")
	if !ok {
		return repository.FinanceFilter{}, false
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return repository.FinanceFilter{}, false
	}
	return repository.FinanceFilter{UserID: userID(c), ArtistID: c.Query("artist_id"), From: from, To: to}, true
}

func ListFinanceTransactions(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		f, ok := financeFilter(c)
		if !ok {
			return nil
		}
		res, err := svc.ListTransactions(c.UserContext(), f, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func CreateFinanceTransaction(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FinanceTransactionInput
		if !bindJSON(c, &in) {
			return nil
		}
		tx, err := svc.CreateTransaction(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, tx)
	}
}

func DeleteFinanceTransaction(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		if err := svc.DeleteTransaction(c.UserContext(), userID(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListFinanceCategories(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.ListCategories(c.UserContext(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": cats})
	}
}

func CreateFinanceCategory(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CategoryInput
		if !bindJSON(c, &in) {
			return nil
		}
		cat, err := svc.CreateCategory(c.UserContext(), userID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, cat)
	}
}

// FinanceSummary godoc
// @Summary Income, expenses and net per category
// @Tags finance
// @Produce json
// @Param artist_id query string false "artist"
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} model.FinanceSummary
// @Security BearerAuth
// @Router /api/finance/summary [get]
func FinanceSummary(svc service.FinanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, ok := financeFilter(c)
		if !ok {
			return nil
		}
		sum, err := svc.Summary(c.UserContext(), f)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(sum)
	}
}
