package hotel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderThumb is used for hotels without a thumbnail.
const PlaceholderThumb = "assets/sample/placeholder.svg"

// Affiliate URL placeholders.
const (
	PlaceholderCheckin  = "{CHECKIN}"
	PlaceholderCheckout = "{CHECKOUT}"
	PlaceholderAdults   = "{ADULTS}"
)

// Hotel is one accommodation suggestion.
type Hotel struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Area          string          `json:"area"`
	Currency      string          `json:"currency"`
	PricePerNight json.RawMessage `json:"pricePerNight"` // number or string in the catalog
	AffiliateURL  string          `json:"affiliateUrl"`
	Thumb         string          `json:"thumb"`
}

// Price renders the nightly price as written in the catalog, "" when absent.
func (h Hotel) Price() string {
	raw := strings.TrimSpace(string(h.PricePerNight))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(h.PricePerNight, &s); err == nil {
		return s
	}
	return raw
}

// Normalize fills in the defaults of the i-th catalog entry.
func Normalize(h Hotel, i int) Hotel {
	if h.ID == "" {
		h.ID = fmt.Sprintf("htl-%d", i)
	}
	if h.Name == "" {
		h.Name = "Hotel"
	}
	if h.Currency == "" {
		h.Currency = "€"
	}
	if h.AffiliateURL == "" {
		h.AffiliateURL = "#"
	}
	if h.Thumb == "" {
		h.Thumb = PlaceholderThumb
	}
	return h
}

// AffiliateURL fills the booking link placeholders. Only the first occurrence of
// each placeholder is replaced; adults defaults to "1".
func AffiliateURL(url, checkin, checkout, adults string) string {
	if url == "" {
		url = "#"
	}
	if adults == "" {
		adults = "1"
	}
	url = strings.Replace(url, PlaceholderCheckin, checkin, 1)
	url = strings.Replace(url, PlaceholderCheckout, checkout, 1)
	return strings.Replace(url, PlaceholderAdults, adults, 1)
}

// DatesLabel is the aside heading, "start → end" or "Select dates".
func DatesLabel(start, end string) string {
	if start != "" && end != "" {
		return start + " → " + end
	}
	return "Select dates"
}

// Slot is one entry of the aside list: a hotel or an advertising card.
type Slot struct {
	Ad    bool
	Hotel Hotel
	URL   string // booking link with placeholders filled
}

// Interleave lays out the aside: an advertising slot after every second hotel,
// never after the last one.
func Interleave(hotels []Hotel, checkin, checkout, adults string) []Slot {
	slots := make([]Slot, 0, len(hotels)+len(hotels)/2)
	for i, h := range hotels {
		slots = append(slots, Slot{Hotel: h, URL: AffiliateURL(h.AffiliateURL, checkin, checkout, adults)})
		if (i+1)%2 == 0 && i < len(hotels)-1 {
			slots = append(slots, Slot{Ad: true})
		}
	}
	return slots
}
