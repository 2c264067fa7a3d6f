// Package view renders the storefront shell and the product listing.
// Rendering is a pure function of its input: the same LoadState always
// produces the same bytes.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"webstore/internal/loader"
	"webstore/internal/models"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const (
	// Heading is the static title shown above every page.
	Heading = "Welcome to My Webstore"

	EmptyMessage   = "No products available"
	LoadingMessage = "Loading..."

	pageTitle = "My Webstore"
)

type layoutView struct {
	Title   string
	Heading string
	Outlet  template.HTML
}

type listingView struct {
	Loading bool
	Failed  bool
	Message string
	Cards   []cardView
}

type cardView struct {
	ID    string
	Name  string
	Price string
}

// Renderer holds the parsed templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates once.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse view templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Shell renders the layout around an already rendered page.
func (r *Renderer) Shell(outlet template.HTML) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "layout", layoutView{
		Title:   pageTitle,
		Heading: Heading,
		Outlet:  outlet,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render layout: %w", err)
	}
	return buf.String(), nil
}

// Listing renders the product listing fragment for state.
func (r *Renderer) Listing(state loader.LoadState) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "listing", newListingView(state)); err != nil {
		return "", fmt.Errorf("failed to render listing: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Page renders the listing inside the shell.
func (r *Renderer) Page(state loader.LoadState) (string, error) {
	outlet, err := r.Listing(state)
	if err != nil {
		return "", err
	}
	return r.Shell(outlet)
}

func newListingView(state loader.LoadState) listingView {
	switch state.Status() {
	case loader.StatusError:
		return listingView{Failed: true, Message: state.Message()}
	case loader.StatusSuccess:
		products := state.Products()
		cards := make([]cardView, 0, len(products))
		for _, p := range products {
			cards = append(cards, cardView{
				ID:    string(p.ID),
				Name:  p.Name,
				Price: models.FormatPrice(p.Price),
			})
		}
		return listingView{Cards: cards}
	default:
		return listingView{Loading: true}
	}
}

// Text renders state as plain text: the loading or error message, the empty
// message, or one "name<TAB>$price" line per product.
func Text(state loader.LoadState) string {
	switch state.Status() {
	case loader.StatusError:
		return state.Message()
	case loader.StatusSuccess:
		products := state.Products()
		if len(products) == 0 {
			return EmptyMessage
		}
		lines := make([]string, 0, len(products))
		for _, p := range products {
			lines = append(lines, p.Name+"\t"+models.FormatPrice(p.Price))
		}
		return strings.Join(lines, "\n")
	default:
		return LoadingMessage
	}
}
