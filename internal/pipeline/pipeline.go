package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/dealcard/internal/types"
)

// Middleware processes a scraped product and returns the (possibly modified)
// product. Return nil to reject the product.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a product. Return nil to reject it.
	Process(p *types.ScrapedProduct) (*types.ScrapedProduct, error)
}

// Chain runs middleware over scraped products in order.
type Chain struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// NewChain creates an empty Chain.
func NewChain(logger *slog.Logger) *Chain {
	return &Chain{
		logger: logger.With("component", "normalize"),
	}
}

// DefaultChain returns the normalisation applied to every scraped product
// before it is assembled into a card.
func DefaultChain(maxNameLength int, logger *slog.Logger) *Chain {
	c := NewChain(logger)
	c.Use(&TrimMiddleware{})
	c.Use(NewHTMLSanitizeMiddleware())
	c.Use(&NameLengthMiddleware{Max: maxNameLength})
	c.Use(&RequiredFieldsMiddleware{})
	return c
}

// Use adds a middleware to the chain.
func (c *Chain) Use(mw Middleware) {
	c.middlewares = append(c.middlewares, mw)
	c.logger.Debug("middleware added", "name", mw.Name(), "position", len(c.middlewares))
}

// Process runs the product through all middleware in order.
func (c *Chain) Process(url string, p *types.ScrapedProduct) (*types.ScrapedProduct, error) {
	current := p

	for _, mw := range c.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{Stage: mw.Name(), URL: url, Err: err}
		}
		if result == nil {
			c.logger.Debug("product rejected", "stage", mw.Name(), "url", url)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from the text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(p *types.ScrapedProduct) (*types.ScrapedProduct, error) {
	for _, f := range textFields(p) {
		*f = strings.TrimSpace(*f)
	}
	return p, nil
}

// RequiredFieldsMiddleware rejects products left without a name or price.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(p *types.ScrapedProduct) (*types.ScrapedProduct, error) {
	if p.Name == "" || p.Price == "" {
		return nil, nil
	}
	return p, nil
}

func textFields(p *types.ScrapedProduct) []*string {
	return []*string{&p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.ImageURL, &p.LimitedOfferText}
}
