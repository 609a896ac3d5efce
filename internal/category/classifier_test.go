package category

import "testing"

func TestClassifyDefaultRules(t *testing.T) {
	c := Default()
	tests := []struct {
		name, description string
		want              string
	}{
		{"boAt Rockerz 450 Bluetooth Headphones", "", "Electronics"},
		{"Samsung Galaxy M14 5G Phone", "", "Electronics"},
		{"Men's Slim Fit Jeans", "", "Fashion"},
		{"Vitamin C Face Cream", "brightening skincare", "Beauty & Personal Care"},
		{"Non-stick Cookware Set", "", "Home & Kitchen"},
		{"Anti-slip Yoga Mat", "", "Sports & Fitness"},
		{"Atomic Habits", "a bestselling book on behaviour", "Books"},
		{"Wooden Jigsaw Puzzle", "", "Toys & Games"},
		{"Whey Protein 1kg", "", "Health"},
		{"Car Phone Holder", "", "Electronics"}, // electronics is checked before automotive
		{"Helmet for Motorcycle riders", "", "Automotive"},
		{"Dark Chocolate Gift Box", "", "Food & Beverages"},
		{"Goa Holiday Package", "3 nights hotel stay", "Travel"},
		{"Brass Diya", "", "General"},
		{"", "", "General"},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.name, tt.description); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.name, tt.description, got, tt.want)
		}
	}
}

func TestClassifyMatchesInsideWords(t *testing.T) {
	c := Default()
	tests := map[string]string{
		"Apple iPhone 15 (128 GB) - Black": "Electronics",
		"Redmi Note 13 5G Smartphone":      "Electronics",
		"Noise ColorFit Smartwatch":        "Fashion",
		"Sony 55 inch HDTV":                "Electronics",
		"Board Game Night Pack":            "Toys & Games",
	}
	for name, want := range tests {
		if got := c.Classify(name, ""); got != want {
			t.Errorf("Classify(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := Default()
	first := c.Classify("Running Shoes", "lightweight sports shoe")
	for i := 0; i < 50; i++ {
		if got := c.Classify("Running Shoes", "lightweight sports shoe"); got != first {
			t.Fatalf("classification changed between calls: %q then %q", first, got)
		}
	}
	if first != "Fashion" {
		t.Errorf("expected Fashion to win by rule order, got %q", first)
	}
}

func TestCustomRulesAndCategories(t *testing.T) {
	c := NewClassifier(
		Rule{Category: "Pets", Keywords: []string{"dog", "cat food"}},
		Rule{Category: "Empty"},
	)
	if got := c.Classify("Premium Cat Food 3kg", ""); got != "Pets" {
		t.Errorf("phrase keyword should match, got %q", got)
	}
	if got := c.Classify("Cat Toy", ""); got != Fallback {
		t.Errorf("partial phrase should not match, got %q", got)
	}

	cats := c.Categories()
	if len(cats) != 2 || cats[0] != "Pets" || cats[1] != Fallback {
		t.Errorf("Categories() = %v", cats)
	}
	if n := len(Default().Categories()); n != len(DefaultRules)+1 {
		t.Errorf("expected %d default categories, got %d", len(DefaultRules)+1, n)
	}
}
