package platform

import (
	"github.com/IshaanNene/dealcard/internal/types"
)

// DefaultRegistry returns a registry loaded with the built-in platforms.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range builtinProfiles() {
		if err := r.Register(p); err != nil {
			panic(err) // built-in table is static
		}
	}
	return r
}

// shopifySelectors covers the D2C storefronts that run on Shopify themes.
var shopifySelectors = Selectors{
	Title:         []string{".product__title h1", ".product-single__title", "h1.product-title", "h1"},
	Price:         []string{".price-item--sale", ".price__sale .price-item", ".product__price", ".price-item--regular", ".price"},
	OriginalPrice: []string{".price-item--regular s", ".price__compare", ".compare-price", "s.price-item"},
	Image:         []string{".product__media img", ".product-single__photo img", ".product-featured-media"},
	Description:   []string{".product__description", ".product-single__description", ".rte"},
	Rating:        []string{".jdgm-prev-badge__stars", ".spr-badge-starrating", ".rating"},
	ReviewCount:   []string{".jdgm-prev-badge__text", ".spr-badge-caption"},
}

func builtinProfiles() []Profile {
	return []Profile{
		{
			Platform:           "amazon",
			Name:               "Amazon",
			Domains:            []string{"amazon.", "amzn."},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors: Selectors{
				Title:         []string{"#productTitle", ".product-title", "h1.a-size-large"},
				Price:         []string{".a-price.priceToPay .a-offscreen", ".a-price-current .a-offscreen", ".a-price .a-offscreen", "#priceblock_dealprice", "#priceblock_ourprice", ".a-price-whole"},
				OriginalPrice: []string{".a-price.a-text-price .a-offscreen", ".a-text-strike .a-offscreen", "#priceblock_listprice"},
				Image:         []string{"#landingImage", "#imgBlkFront", ".a-dynamic-image", "img[data-old-hires]"},
				Description:   []string{"#feature-bullets ul", "#productDescription", ".a-unordered-list"},
				Rating:        []string{"#acrPopover", ".a-icon-alt", `[data-hook="average-star-rating"]`},
				ReviewCount:   []string{"#acrCustomerReviewText", `[data-hook="total-review-count"]`},
				Discount:      []string{".savingsPercentage", ".savingPriceOverride"},
			},
		},
		{
			Platform:           "flipkart",
			Name:               "Flipkart",
			Domains:            []string{"flipkart.com", "fkrt.it"},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors: Selectors{
				Title:         []string{".B_NuCI", "._35KyD6", ".x2Jnpn", ".VU-ZEz", "h1 span"},
				Price:         []string{"._30jeq3._16Jk6d", ".Nx9bqj.CxhGGd", "._1_WHN1", "._3I9_wc", "._25b18c"},
				OriginalPrice: []string{"._3I9_wc._2p6lqe", ".yRaY8j", "._3I9_wc._27UcVY", "._2Rrgu5"},
				Image:         []string{"._396cs4", "._2r_T1I", ".CXW8mj img", ".DByuf4"},
				Description:   []string{"._1mXcCf", "._3WHvuP", ".IRJbn8"},
				Rating:        []string{"._3LWZlK", ".XQDdHH", ".hGSR34"},
				ReviewCount:   []string{"._2_R_DZ", ".Wphh3N", "._13vcmD"},
				Discount:      []string{"._3Ay6Sb span", ".UkUFwK span"},
			},
		},
		{
			Platform:           "myntra",
			Name:               "Myntra",
			Domains:            []string{"myntra.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyBrowser,
			WaitSelector:       ".pdp-name",
			Selectors: Selectors{
				Title:         []string{".pdp-name", ".pdp-title", "h1.pdp-title"},
				Price:         []string{".pdp-price strong", ".pdp-price"},
				OriginalPrice: []string{".pdp-mrp s", ".pdp-mrp"},
				Image:         []string{".image-grid-image", ".image-grid-imageContainer img"},
				Description:   []string{".pdp-product-description-content"},
				Rating:        []string{".index-overallRating div", ".index-overallRating"},
				ReviewCount:   []string{".index-ratingsCount"},
				Discount:      []string{".pdp-discount"},
			},
		},
		{
			Platform:           "nykaa",
			Name:               "Nykaa",
			Domains:            []string{"nykaa.com", "nykaafashion.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyBrowser,
			Selectors: Selectors{
				Title:         []string{".css-1gc4x7i", "h1"},
				Price:         []string{".css-1jczs19", ".css-1d1r2g4 span"},
				OriginalPrice: []string{".css-u05rr span", ".css-17x46n5 span"},
				Image:         []string{".css-11gn9r6 img", ".css-43m2vm img"},
				Description:   []string{".content-details", "#content-details"},
				Rating:        []string{".css-m6n3ou", ".css-1hvvm95"},
				ReviewCount:   []string{".css-1hvvm95"},
				Discount:      []string{".css-bhhehx"},
			},
		},
		{
			Platform:           "ajio",
			Name:               "AJIO",
			Domains:            []string{"ajio.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyBrowser,
			Selectors: Selectors{
				Title:         []string{".prod-name", "h1.prod-name"},
				Price:         []string{".prod-sp"},
				OriginalPrice: []string{".prod-cp"},
				Image:         []string{".rilrtl-lazy-img", ".img-alignment"},
				Description:   []string{".prod-desc"},
				Discount:      []string{".prod-discnt"},
			},
		},
		{
			Platform:           "meesho",
			Name:               "Meesho",
			Domains:            []string{"meesho.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors: Selectors{
				Title: []string{`[data-testid="product-title"]`, "h1"},
				Price: []string{`[data-testid="product-price"]`, "h4"},
				Image: []string{`[data-testid="product-image"] img`},
			},
		},
		{
			Platform:           "deodap",
			Name:               "DeoDap",
			Domains:            []string{"deodap.in", "deodap.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors:          shopifySelectors,
		},
		{
			Platform:           "boat",
			Name:               "boAt",
			Domains:            []string{"boat-lifestyle.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors:          shopifySelectors,
		},
		{
			Platform:           "mamaearth",
			Name:               "Mamaearth",
			Domains:            []string{"mamaearth.in"},
			AffiliateSupported: true,
			Strategy:           types.StrategyDirect,
			Selectors:          shopifySelectors,
		},
		{
			Platform:           "tatacliq",
			Name:               "Tata CLiQ",
			Domains:            []string{"tatacliq.com"},
			AffiliateSupported: true,
			Strategy:           types.StrategyBrowser,
			Selectors: Selectors{
				Title: []string{".ProductDetailsMainCard__productName", "h1"},
				Price: []string{".ProductDetailsMainCard__price h3", ".ProductDetailsMainCard__price"},
				Image: []string{".ProductGalleryDesktop__image img"},
			},
		},
		{
			Platform:           "tataneu",
			Name:               "Tata Neu",
			Domains:            []string{"tataneu.com", "tata-neu"},
			AffiliateSupported: false,
			Strategy:           types.StrategyGeneric,
			Selectors:          shopifySelectors,
		},
		travelProfile("makemytrip", "MakeMyTrip", "makemytrip.com"),
		travelProfile("goibibo", "Goibibo", "goibibo.com"),
		travelProfile("cleartrip", "Cleartrip", "cleartrip.com"),
		travelProfile("booking", "Booking.com", "booking.com"),
		travelProfile("agoda", "Agoda", "agoda.com"),
	}
}

func travelProfile(tag, name, domain string) Profile {
	return Profile{
		Platform:           tag,
		Name:               name,
		Domains:            []string{domain},
		AffiliateSupported: true,
		Strategy:           types.StrategyGeneric,
		Selectors: Selectors{
			Title: []string{`[itemprop="name"]`, "h1"},
			Price: []string{`[itemprop="price"]`, `[class*="price"]`},
			Image: []string{`[itemprop="image"]`},
		},
	}
}

func genericProfile() Profile {
	return Profile{
		Platform:           types.GenericPlatform,
		Name:               "Unknown",
		AffiliateSupported: false,
		Strategy:           types.StrategyGeneric,
		Selectors: Selectors{
			Title:         []string{"h1", ".product-title", ".product-name", ".title", "[data-testid=product-title]"},
			Price:         []string{".price", ".product-price", ".current-price", ".sale-price", "[data-testid=price]", ".amount"},
			OriginalPrice: []string{".original-price", ".mrp", ".list-price", ".was-price", "del", "s"},
			Image:         []string{".product-image img", ".main-image img", ".hero-image img", "img[data-src]", "main img"},
			Description:   []string{".product-description", ".description", "#description"},
			Rating:        []string{".rating", ".stars", "[class*=rating]"},
			ReviewCount:   []string{".review-count", ".reviews", "[class*=review]"},
			Discount:      []string{".discount", "[class*=discount]"},
		},
	}
}
