package handlers

import (
	"log"

	"webstore/internal/services"
	"webstore/internal/view"

	"github.com/gofiber/fiber/v2"
)

// StorefrontHandler serves the listing page inside the shell.
type StorefrontHandler struct {
	listing  *services.ListingService
	renderer *view.Renderer
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(listing *services.ListingService, renderer *view.Renderer) *StorefrontHandler {
	return &StorefrontHandler{
		listing:  listing,
		renderer: renderer,
	}
}

// RegisterRoutes registers the page routes with the Fiber app.
func (h *StorefrontHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleListing)
}

// HandleListing activates a listing page for this request and renders the
// state it reached.
func (h *StorefrontHandler) HandleListing(c *fiber.Ctx) error {
	state := h.listing.LoadListing(c.UserContext())

	page, err := h.renderer.Page(state)
	if err != nil {
		log.Printf("Error rendering listing page: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not render page")
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("html", "utf-8")
	return c.SendString(page)
}
