package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/dealcard/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Chain Tests ---

func TestChainBasic(t *testing.T) {
	c := NewChain(testLogger)
	c.Use(&TrimMiddleware{})

	p := &types.ScrapedProduct{Name: "  Hello World  ", Price: " ₹499 "}
	result, err := c.Process("https://example.com", p)
	if err != nil {
		t.Fatalf("chain error: %v", err)
	}
	if result.Name != "Hello World" || result.Price != "₹499" {
		t.Errorf("expected trimmed fields, got %q / %q", result.Name, result.Price)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "explode" }
func (failingMiddleware) Process(*types.ScrapedProduct) (*types.ScrapedProduct, error) {
	return nil, errors.New("boom")
}

func TestChainWrapsStageError(t *testing.T) {
	c := NewChain(testLogger)
	c.Use(&TrimMiddleware{})
	c.Use(failingMiddleware{})

	_, err := c.Process("https://example.com/p", &types.ScrapedProduct{Name: "x", Price: "₹1"})
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "explode" || pe.URL != "https://example.com/p" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}

func TestDefaultChain(t *testing.T) {
	c := DefaultChain(20, testLogger)
	if c.Len() != 4 {
		t.Fatalf("expected 4 middleware, got %d", c.Len())
	}

	p := &types.ScrapedProduct{
		Name:        "  <b>Wireless</b> Earbuds &amp; Charging Case Pro Max  ",
		Description: "<p>Long   battery</p>",
		Price:       "₹1999",
	}
	result, err := c.Process("u", p)
	if err != nil || result == nil {
		t.Fatalf("unexpected result %v / %v", result, err)
	}
	if result.Name != "Wireless Earbuds & C" {
		t.Errorf("name = %q", result.Name)
	}
	if result.Description != "Long battery" {
		t.Errorf("description = %q", result.Description)
	}
}

// --- Middleware Tests ---

func TestHTMLSanitizeMiddleware(t *testing.T) {
	m := NewHTMLSanitizeMiddleware()
	p := &types.ScrapedProduct{
		Name:  `<p>Hello <b>World</b></p> &amp; <a href="x">link</a>`,
		Price: "₹<b>1</b>",
	}

	result, err := m.Process(p)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if result.Name != "Hello World & link" {
		t.Errorf("expected 'Hello World & link', got %q", result.Name)
	}
	if result.Price != "₹<b>1</b>" {
		t.Error("price must be left to the scraper's cleaner")
	}
}

func TestNameLengthMiddleware(t *testing.T) {
	long := strings.Repeat("ब", 310)
	m := &NameLengthMiddleware{Max: 300}

	result, _ := m.Process(&types.ScrapedProduct{Name: long})
	if n := len([]rune(result.Name)); n != 300 {
		t.Errorf("expected 300 runes, got %d", n)
	}

	short, _ := m.Process(&types.ScrapedProduct{Name: "Kettle"})
	if short.Name != "Kettle" {
		t.Errorf("short name changed: %q", short.Name)
	}

	off, _ := (&NameLengthMiddleware{}).Process(&types.ScrapedProduct{Name: long})
	if off.Name != long {
		t.Error("zero max must disable the cap")
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{}

	if r, _ := m.Process(&types.ScrapedProduct{Name: "Kettle", Price: "₹899"}); r == nil {
		t.Error("complete product should pass")
	}
	if r, _ := m.Process(&types.ScrapedProduct{Name: "   ", Price: ""}); r != nil {
		t.Error("product without price should be rejected")
	}
}
