package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"backoffice/internal/service"
)

// formFile opens the multipart field "file". On failure the 400 has been
// written and ok is false.
func formFile(c *fiber.Ctx) (fh *multipart.FileHeader, f multipart.File, ok bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		return nil, nil, false
	}
	f, err = fh.Open()
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		return nil, nil, false
	}
	return fh, f, true
}

// UploadRoyaltyReport godoc
// @Summary Upload a royalty or audience report (CSV/TSV)
// @Description The header row decides the report kind. Rows that fail to parse are returned in row_errors.
// @Tags royalty-reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "report"
// @Param artist_id formData string false "artist (defaults to the uploader's artist)"
// @Success 201 {object} service.ReportUploadResult
// @Failure 400 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Security BearerAuth
// @Router /api/royalty-reports [post]
func UploadRoyaltyReport(svc service.RoyaltyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, f, ok := formFile(c)
		if !ok {
			return nil
		}
		defer f.Close()

		res, err := svc.Upload(c.UserContext(), service.ReportUpload{
			UserID:      userID(c),
			ArtistID:    c.FormValue("artist_id"),
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
		if err != nil {
			return fail(c, err)
		}
		return created(c, res)
	}
}

func ListRoyaltyReports(svc service.RoyaltyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok := page(c)
		if !ok {
			return nil
		}
		res, err := svc.List(c.UserContext(), userID(c), limit, offset)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetRoyaltyReport(svc service.RoyaltyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		r, err := svc.Get(c.UserContext(), userID(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

// ImportStatements godoc
// @Summary Import an artist statements workbook (.xlsx)
// @Description One sheet per artist. A failing sheet is reported in details and does not abort the others.
// @Tags statements
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "workbook"
// @Success 200 {object} service.StatementImportResult
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/statements/import [post]
func ImportStatements(svc service.StatementService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, f, ok := formFile(c)
		if !ok {
			return nil
		}
		defer f.Close()

		res, err := svc.Import(c.UserContext(), service.StatementUpload{
			UserID:   userID(c),
			FileName: fh.Filename,
			Size:     fh.Size,
			Body:     f,
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// ListStatements reads the artist from the :id path parameter or the
// artist_id query.
func ListStatements(svc service.StatementService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		artistID := c.Params("id", c.Query("artist_id"))
		sts, err := svc.ListByArtist(c.UserContext(), artistID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": sts})
	}
}

func ListStatementTransactions(svc service.StatementService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		txs, err := svc.ListTransactions(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"data": txs})
	}
}
