package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backoffice/internal/auth"
	"backoffice/internal/chat"
	"backoffice/internal/http/middleware"
	"backoffice/internal/logger"
	"backoffice/internal/service"
)

// Deps is everything the HTTP layer needs. Nil services are skipped so tests
// can mount only the routes they exercise.
type Deps struct {
	DB       *sql.DB
	Verifier *auth.Verifier
	Gatherer prometheus.Gatherer
	Hub      *chat.Hub
	Log      *logger.Logger

	Artists      service.ArtistService
	Participants service.ParticipantService
	Works        service.WorkService
	Templates    service.TemplateService
	Contracts    service.ContractService
	Signatures   service.SignatureService
	Signing      service.SigningService
	Verification service.VerificationService
	Royalties    service.RoyaltyService
	Statements   service.StatementService
	Tracks       service.TrackService
	Audio        service.AudioService
	Chat         service.ChatService
	Calendar     service.CalendarService
	Finance      service.FinanceService
	Muso         service.MusoService
}

// RegisterRoutes attaches public and /api routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	if d.Signing != nil {
		app.Get("/webhooks/auco-signatures", AucoWebhookInfo())
		app.Post("/webhooks/auco-signatures", AucoWebhook(d.Signing))
	}
	if d.Verification != nil {
		app.Post("/webhooks/auco", AucoVerificationWebhook(d.Verification))
	}
	if d.Tracks != nil {
		app.Get("/listen/:code", PublicTrack(d.Tracks))
		app.Post("/listen/:code/plays", RecordPlay(d.Tracks))
	}

	api := app.Group("/api")
	if d.Verifier != nil {
		api.Use(middleware.Auth(d.Verifier))
	}

	if s := d.Artists; s != nil {
		api.Get("/artists", ListArtists(s))
		api.Post("/artists", CreateArtist(s))
		api.Post("/artists/restore", RestoreArtist(s))
		api.Get("/artists/:id", GetArtist(s))
		api.Patch("/artists/:id", UpdateArtist(s))
		api.Delete("/artists/:id", DeleteArtist(s))
	}
	if s := d.Participants; s != nil {
		api.Get("/participants", ListParticipants(s))
		api.Post("/participants", CreateParticipant(s))
		api.Get("/participants/:id", GetParticipant(s))
		api.Patch("/participants/:id", UpdateParticipant(s))
		api.Delete("/participants/:id", DeleteParticipant(s))
	}
	if s := d.Works; s != nil {
		api.Get("/works", ListWorks(s))
		api.Post("/works", CreateWork(s))
		api.Get("/works/:id", GetWork(s))
		api.Patch("/works/:id", UpdateWork(s))
		api.Delete("/works/:id", DeleteWork(s))
	}
	if s := d.Templates; s != nil {
		api.Get("/templates", ListTemplates(s))
		api.Post("/templates", CreateTemplate(s))
		api.Get("/templates/:id", GetTemplate(s))
		api.Patch("/templates/:id", UpdateTemplate(s))
		api.Delete("/templates/:id", DeleteTemplate(s))
	}
	if s := d.Contracts; s != nil {
		api.Get("/contracts", ListContracts(s))
		api.Post("/contracts", CreateContract(s))
		api.Get("/contracts/:id", GetContract(s))
		api.Patch("/contracts/:id", UpdateContract(s))
		api.Delete("/contracts/:id", DeleteContract(s))
		api.Get("/contracts/:id/status", ContractStatus(s))
		api.Get("/contracts/:id/render", RenderContract(s))
		api.Get("/contract-participants", ListContractParticipants(s))
		api.Post("/contract-participants", AddContractParticipant(s))
	}
	if s := d.Signatures; s != nil {
		api.Get("/signatures", ListSignatures(s))
		api.Post("/signatures", CreateSignature(s))
		api.Get("/signatures/stats", SignatureStats(s))
		api.Get("/signatures/:id", GetSignature(s))
		api.Patch("/signatures/:id", UpdateSignature(s))
		api.Delete("/signatures/:id", DeleteSignature(s))
	}
	if s := d.Signing; s != nil {
		api.Post("/auco/start-signature", StartSignature(s))
		api.Post("/auco/sync-documents", SyncDocuments(s))
		api.Post("/auco/sync-signatures", SyncSignatures(s))
		api.Get("/auco/documents", ListAucoDocuments(s))
	}
	if s := d.Royalties; s != nil {
		api.Post("/royalty-reports", UploadRoyaltyReport(s))
		api.Get("/royalty-reports", ListRoyaltyReports(s))
		api.Get("/royalty-reports/:id", GetRoyaltyReport(s))
	}
	if s := d.Statements; s != nil {
		api.Post("/statements/import", ImportStatements(s))
		api.Get("/statements", ListStatements(s))
		api.Get("/statements/:id/transactions", ListStatementTransactions(s))
		api.Get("/artists/:id/statements", ListStatements(s))
	}
	if s := d.Tracks; s != nil {
		api.Get("/tracks", ListTracks(s))
		api.Post("/tracks", CreateTrack(s))
		api.Patch("/tracks/:id", UpdateTrack(s))
		api.Delete("/tracks/:id", DeleteTrack(s))
		api.Get("/tracks/:id/analytics", TrackAnalytics(s))
	}
	if s := d.Audio; s != nil {
		api.Post("/audio-events", IngestAudioEvents(s))
		api.Get("/audio-events/summary", AudioSummary(s))
	}
	if s := d.Chat; s != nil {
		api.Get("/projects/:projectId/messages", ListMessages(s))
		api.Post("/projects/:projectId/messages", SendMessage(s))
		api.Post("/projects/:projectId/messages/read", MarkMessagesRead(s))
	}
	if d.Hub != nil {
		api.Get("/projects/:projectId/stream", ChatStream(d.Hub, log))
	}
	if s := d.Calendar; s != nil {
		api.Get("/events", ListEvents(s))
		api.Post("/events", CreateEvent(s))
		api.Patch("/events/:id", UpdateEvent(s))
		api.Delete("/events/:id", DeleteEvent(s))
	}
	if s := d.Finance; s != nil {
		api.Get("/finance/transactions", ListFinanceTransactions(s))
		api.Post("/finance/transactions", CreateFinanceTransaction(s))
		api.Delete("/finance/transactions/:id", DeleteFinanceTransaction(s))
		api.Get("/finance/categories", ListFinanceCategories(s))
		api.Post("/finance/categories", CreateFinanceCategory(s))
		api.Get("/finance/summary", FinanceSummary(s))
	}
	if s := d.Muso; s != nil {
		api.Get("/muso/credits", MusoCredits(s))
		api.Post("/muso/link", LinkMusoProfile(s))
		api.Post("/muso/sync", SyncMuso(s))
	}
}
