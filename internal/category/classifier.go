// Package category assigns a display category to a product from the
// keywords found in its name and description.
package category

import (
	"strings"
)

// Fallback is returned when no rule matches.
const Fallback = "General"

// Rule maps a set of keywords to a category. A keyword matches anywhere in
// the text, so multi-word keywords match as a phrase.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules are checked in order; the first matching rule wins.
var DefaultRules = []Rule{
	{"Electronics", []string{"phone", "laptop", "tablet", "headphone", "earphone", "speaker", "camera", "tv", "monitor", "keyboard", "mouse"}},
	{"Fashion", []string{"shirt", "dress", "jeans", "shoes", "bag", "watch", "jewelry", "clothing", "apparel", "fashion"}},
	{"Beauty & Personal Care", []string{"cream", "lotion", "shampoo", "soap", "makeup", "skincare", "beauty", "cosmetic", "perfume"}},
	{"Home & Kitchen", []string{"kitchen", "home", "furniture", "decor", "appliance", "cookware", "bedsheet", "curtain", "lamp"}},
	{"Sports & Fitness", []string{"fitness", "gym", "sports", "exercise", "yoga", "running", "workout", "athletic"}},
	{"Books", []string{"book", "novel", "textbook", "guide", "manual", "literature"}},
	{"Toys & Games", []string{"toy", "game", "puzzle", "doll", "action figure", "board game"}},
	{"Health", []string{"vitamin", "supplement", "medicine", "health", "wellness", "protein"}},
	{"Automotive", []string{"car", "bike", "motorcycle", "automotive", "vehicle", "tire"}},
	{"Food & Beverages", []string{"food", "snack", "drink", "beverage", "coffee", "tea", "chocolate"}},
	{"Travel", []string{"flight", "hotel", "travel", "trip", "bus", "train", "holiday"}},
}

// Classifier matches product text against ordered keyword rules. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier keeps rules in the given order. Keywords are lower-cased;
// rules without a category or keywords are dropped.
func NewClassifier(rules ...Rule) *Classifier {
	c := &Classifier{}
	for _, r := range rules {
		if r.Category == "" {
			continue
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			continue
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kws})
	}
	return c
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	return NewClassifier(DefaultRules...)
}

// Classify returns the first category with a keyword contained anywhere
// in name or description, or Fallback. "smartphone" counts as "phone".
func (c *Classifier) Classify(name, description string) string {
	text := strings.ToLower(name + " " + description)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Category
			}
		}
	}
	return Fallback
}

// Categories lists the categories in rule order followed by Fallback.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return append(out, Fallback)
}
