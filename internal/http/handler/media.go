package handler

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"backoffice/internal/service"
)

// TrackPasswordHeader carries the password of a protected share link.
const TrackPasswordHeader = "X-Track-Password"

// trackForm collects the optional multipart fields of a track upload.
type trackForm struct {
	c   *fiber.Ctx
	bad string
}

func (f *trackForm) optString(key string) *string {
	v := strings.TrimSpace(f.c.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

func (f *trackForm) optInt(key string) *int {
	v := f.optString(key)
	if v == nil || f.bad != "" {
		return nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		f.bad = key
		return nil
	}
	return &n
}

func (f *trackForm) optBool(key string) *bool {
	v := f.optString(key)
	if v == nil || f.bad != "" {
		return nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		f.bad = key
		return nil
	}
	return &b
}

func (f *trackForm) optTime(key string) *time.Time {
	v := f.optString(key)
	if v == nil || f.bad != "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		return &t
	}
	if t, err := time.Parse(time.DateOnly, *v); err == nil {
		return &t
	}
	f.bad = key
	return nil
}

// CreateTrack godoc
// @Summary Upload an audio file and create a share link
// @Tags tracks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "audio (mp3, wav, m4a, aac, ogg, flac)"
// @Param track_name formData string true "track name"
// @Param artist_name formData string true "artist name"
// @Param password formData string false "optional listen password"
// @Param max_plays formData int false "play limit"
// @Param expires_at formData string false "RFC3339 or YYYY-MM-DD"
// @Success 201 {object} model.ShareableTrack
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/tracks [post]
func CreateTrack(svc service.TrackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, file, ok := formFile(c)
		if !ok {
			return nil
		}
		defer file.Close()

		form := &trackForm{c: c}
		in := service.TrackUpload{
			UserID:        userID(c),
			ArtistID:      form.optString("artist_id"),
			TrackName:     c.FormValue("track_name"),
			ArtistName:    c.FormValue("artist_name"),
			AlbumName:     form.optString("album_name"),
			CoverImageURL: form.optString("cover_image_url"),
			Description:   form.optString("description"),
			Genre:         form.optString("genre"),
			DurationMs:    form.optInt("duration_ms"),
			IsPublic:      form.optBool("is_public"),
			Password:      c.FormValue("password"),
			MaxPlays:      form.optInt("max_plays"),
			ExpiresAt:     form.optTime("expires_at"),
			ReleaseDate:   form.optTime("release_date"),
			FileName:      fh.Filename,
			ContentType:   fh.Header.Get("Content-Type"),
			Size:          fh.Size,
			Body:          file,
		}
		if form.bad != "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FIELD", "invalid "+form.bad)
		}

		t, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return created(c, t)
	}
}

func ListTracks(svc service.TrackService) fiber.Handler {
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

func UpdateTrack(svc service.TrackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		var patch map[string]any
		if !bindJSON(c, &patch) {
			return nil
		}
		t, err := svc.Update(c.UserContext(), userID(c), id, patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(t)
	}
}

func DeleteTrack(svc service.TrackService) fiber.Handler {
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

// TrackAnalytics defaults to the last 30 days when from/to are absent.
func TrackAnalytics(svc service.TrackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c, "id")
		if !ok {
			return nil
		}
		from, ok := queryTime(c, "from")
		if !ok {
			return nil
		}
		to, ok := queryTime(c, "to")
		if !ok {
			return nil
		}
		a, err := svc.Analytics(c.UserContext(), userID(c), id, from, to)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(a)
	}
}

// PublicTrack godoc
// @Summary Resolve a share link
// @Description Password protected links need the X-Track-Password header (or ?password=).
// @Tags listen
// @Produce json
// @Param code path string true "share code"
// @Success 200 {object} service.PublicTrack
// @Failure 401 {object} errorPayload "PASSWORD_REQUIRED"
// @Failure 403 {object} errorPayload "TRACK_EXPIRED or PLAY_LIMIT_REACHED"
// @Failure 404 {object} errorPayload
// @Router /listen/{code} [get]
func PublicTrack(svc service.TrackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		password := c.Get(TrackPasswordHeader)
		if password == "" {
			password = c.Query("password")
		}
		t, err := svc.GetPublic(c.UserContext(), c.Params("code"), password)
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(t)
	}
}

// RecordPlay stores a listener play event for a share link.
func RecordPlay(svc service.TrackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.PlayInput
		if !bindJSON(c, &in) {
			return nil
		}
		if in.Referrer == nil {
			if ref := c.Get(fiber.HeaderReferer); ref != "" {
				in.Referrer = &ref
			}
		}
		if err := svc.RecordPlay(c.UserContext(), c.Params("code"), in); err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
	}
}

type audioBatch struct {
	Events []service.AudioEventInput `json:"events"`
}

// decodeAudioEvents accepts a single event object or {"events": [...]}.
func decodeAudioEvents(body []byte) ([]service.AudioEventInput, error) {
	var batch audioBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}
	if batch.Events != nil {
		return batch.Events, nil
	}
	var one service.AudioEventInput
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}
	return []service.AudioEventInput{one}, nil
}

// IngestAudioEvents godoc
// @Summary Record player analytics events
// @Tags audio-events
// @Accept json
// @Produce json
// @Success 201 {object} service.AudioIngestResult
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /api/audio-events [post]
func IngestAudioEvents(svc service.AudioService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(c.Body()) == 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is required")
		}
		events, err := decodeAudioEvents(c.Body())
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body", err.Error())
		}
		res, err := svc.Ingest(c.UserContext(), userID(c), events)
		if err != nil {
			return fail(c, err)
		}
		return created(c, res)
	}
}

func AudioSummary(svc service.AudioService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext(), c.Query("track_id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(sum)
	}
}
