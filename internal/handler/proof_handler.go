package handler

import (
	"go-bookstore-ws/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const maxProofSize = 5 << 20

type ProofHandler struct {
	blobs storage.BlobStore
}

func NewProofHandler(blobs storage.BlobStore) *ProofHandler {
	return &ProofHandler{blobs: blobs}
}

// Upload stores a payment or return proof (form field "file") and returns its URL
// POST /api/v1/proofs
func (h *ProofHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}
	if fh.Size > maxProofSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "File must be at most 5 MB"})
	}

	f, err := fh.Open()
	if err != nil {
		return fail(c, "Upload", err)
	}
	defer f.Close()

	url, err := h.blobs.Put(c.UserContext(), fh.Filename, f)
	if err != nil {
		return fail(c, "Upload", err)
	}
	return c.Status(201).JSON(fiber.Map{"url": url})
}
