package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhagelund/snaplist/internal/jobs"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// handleAnalyze accepts a multipart photo upload and queues an analysis
// job. Responds 202 with the job id and polling URL.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Image file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "Only .jpg, .jpeg, .png and .webp files are allowed")
	}

	f, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file")
	}

	jobID, err := s.runner.Enqueue(data, file.Filename)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Too many pending analyses, try again later")
		}
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":     jobID,
		"status_url": "/api/status/" + jobID,
	})
}

// handleStatus reports job progress; once ready, the response embeds the
// stored result document verbatim.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	job, err := s.store.GetJob(c.Params("id"))
	if err != nil {
		return err
	}
	if job == nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}

	resp := fiber.Map{
		"job_id":   job.ID,
		"status":   job.Status,
		"progress": job.Progress,
		"message":  job.Message,
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	if job.ResultJSON != "" {
		resp["result"] = json.RawMessage(job.ResultJSON)
	}
	return c.JSON(resp)
}

func (s *Server) handleListing(c *fiber.Ctx) error {
	listing, err := s.store.GetListing(c.Params("id"))
	if err != nil {
		return err
	}
	if listing == nil {
		return fiber.NewError(fiber.StatusNotFound, "Listing not found")
	}

	return c.JSON(fiber.Map{
		"listing_id": listing.ID,
		"job_id":     listing.JobID,
		"published":  listing.Published,
		"created_at": listing.CreatedAt,
		"draft":      json.RawMessage(listing.DraftJSON),
	})
}

// handlePublish flips the published flag. Idempotent: publishing twice is
// not an error.
func (s *Server) handlePublish(c *fiber.Ctx) error {
	id := c.Params("id")
	listing, err := s.store.GetListing(id)
	if err != nil {
		return err
	}
	if listing == nil {
		return fiber.NewError(fiber.StatusNotFound, "Listing not found")
	}

	if err := s.store.SetPublished(id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"listing_id": id,
		"published":  true,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := s.store.Ping(); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	mode := "demo"
	if s.orchestrator.Live() {
		mode = "live"
	}

	marketStatus := "off"
	if s.researcher != nil {
		marketStatus = "local"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"vision": fiber.Map{
			"mode":     mode,
			"provider": s.orchestrator.Provider(),
			"cache":    s.cacheEnabled,
		},
		"market":   marketStatus,
		"database": dbStatus,
	})
}
