package controllers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/docstore"
	"github.com/foundersbridge/foundersbridge/internal/pkg/jobqueue"
	"github.com/foundersbridge/foundersbridge/internal/pkg/readiness"
)

var docstoreClient *docstore.Client

// InitializeReadinessController wires the document storage client. The client
// may be nil when document storage is disabled; uploads then return 503.
func InitializeReadinessController(client *docstore.Client) {
	docstoreClient = client
}

// HandleReadinessReport scores the acting organization's profile and reports
// discovery eligibility with the concrete missing steps.
func HandleReadinessReport(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	repos := repository.GetGlobalRepositories()
	rows, err := repos.Profile.ListSectionsByOrg(org.ID)
	if err != nil {
		return respondError(c, err)
	}

	// Document requirements only bind startups.
	docsUploaded := true
	if org.Type == models.OrgTypeStartup {
		docsUploaded, err = repos.Profile.HasRequiredDocuments(org.ID)
		if err != nil {
			return respondError(c, err)
		}
	}

	inputs := readiness.BuildInputs(readiness.SectionsForOrgType(org.Type), rows)
	report, err := readiness.Score(inputs, docsUploaded)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

type upsertSectionRequest struct {
	CompletionPercent int `json:"completion_percent"`
}

// HandleProfileSectionUpsert records a section completion percentage.
func HandleProfileSectionUpsert(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	sectionKey := strings.ToLower(strings.TrimSpace(c.Params("section")))
	valid := false
	for _, cfg := range readiness.SectionsForOrgType(org.Type) {
		if string(cfg.Section) == sectionKey {
			valid = true
			break
		}
	}
	if !valid {
		return badRequest(c, "unknown profile section for this organization type")
	}

	var req upsertSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.CompletionPercent < 0 || req.CompletionPercent > 100 {
		return badRequest(c, "completion_percent must be between 0 and 100")
	}

	section := &models.ProfileSection{
		OrgID:             org.ID,
		Section:           sectionKey,
		CompletionPercent: req.CompletionPercent,
	}
	if err := repository.GetGlobalRepositories().Profile.UpsertSection(section); err != nil {
		return respondError(c, err)
	}
	return c.JSON(section)
}

type documentUploadRequest struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name"`
}

// HandleDocumentUpload presigns an upload URL and records the document row.
// A replaced object is cleaned up asynchronously.
func HandleDocumentUpload(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}
	if docstoreClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "unavailable",
			"message": "document storage is not configured",
		})
	}

	var req documentUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	known := false
	for _, k := range models.RequiredDocumentKinds() {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return badRequest(c, "unknown document kind")
	}
	fileName := filepath.Base(strings.TrimSpace(req.FileName))
	if fileName == "" || fileName == "." {
		return badRequest(c, "file_name is required")
	}

	cfg, err := docstore.LoadConfig()
	if err != nil {
		return respondError(c, err)
	}
	objectKey := cfg.GetObjectKey(org.ID, kind, uuid.New().String(), filepath.Ext(fileName))

	uploadURL, err := docstoreClient.PresignUpload(c.Context(), objectKey, "application/octet-stream")
	if err != nil {
		return respondError(c, err)
	}

	repos := repository.GetGlobalRepositories()

	// Remember a replaced object so it can be removed from storage.
	var previousKey string
	if docs, listErr := repos.Profile.ListDocumentsByOrg(org.ID); listErr == nil {
		for _, d := range docs {
			if d.Kind == kind {
				previousKey = d.ObjectKey
				break
			}
		}
	}

	doc := &models.OrganizationDocument{
		OrgID:     org.ID,
		Kind:      kind,
		ObjectKey: objectKey,
		FileName:  fileName,
	}
	if err := repos.Profile.UpsertDocument(doc); err != nil {
		return respondError(c, err)
	}

	if previousKey != "" && previousKey != objectKey {
		payload := jobqueue.DocumentCleanupJobPayload{OrgID: org.ID, Kind: kind, ObjectKey: previousKey}
		if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeDocumentCleanup, payload.ToMap()); err != nil {
			log.Warnf("[Docs] Failed to enqueue cleanup for %s: %v", previousKey, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document":   doc,
		"upload_url": uploadURL,
	})
}

// HandleDocumentList returns the organization's documents with download URLs.
func HandleDocumentList(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	docs, err := repository.GetGlobalRepositories().Profile.ListDocumentsByOrg(org.ID)
	if err != nil {
		return respondError(c, err)
	}

	type documentResponse struct {
		models.OrganizationDocument
		DownloadURL string `json:"download_url,omitempty"`
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		resp := documentResponse{OrganizationDocument: d}
		if docstoreClient != nil {
			if url, presignErr := docstoreClient.PresignDownload(c.Context(), d.ObjectKey); presignErr == nil {
				resp.DownloadURL = url
			}
		}
		out = append(out, resp)
	}
	return c.JSON(fiber.Map{"documents": out})
}
