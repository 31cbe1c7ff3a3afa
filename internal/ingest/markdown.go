package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"ai_hoi/src/vectorstore"
)

// Restaurant is one "## Name" section of the restaurant knowledge file
type Restaurant struct {
	Name         string
	Cuisine      string
	Area         string
	Address      string
	PriceRange   string
	Specialties  string
	OpeningHours string
	Phone        string
	Rating       string
	Description  string
	Highlights   string
}

// field labels as written in the knowledge file: "- **Địa chỉ**: ..."
var restaurantFields = map[string]func(r *Restaurant) *string{
	"địa chỉ":      func(r *Restaurant) *string { return &r.Address },
	"món đặc sắc":  func(r *Restaurant) *string { return &r.Specialties },
	"giá":          func(r *Restaurant) *string { return &r.PriceRange },
	"mô tả":        func(r *Restaurant) *string { return &r.Description },
	"loại hình":    func(r *Restaurant) *string { return &r.Cuisine },
	"khu vực":      func(r *Restaurant) *string { return &r.Area },
	"giờ mở cửa":   func(r *Restaurant) *string { return &r.OpeningHours },
	"điện thoại":   func(r *Restaurant) *string { return &r.Phone },
	"đánh giá":     func(r *Restaurant) *string { return &r.Rating },
	"điểm nổi bật": func(r *Restaurant) *string { return &r.Highlights },
}

// ParseRestaurants reads every "## " section after the file header. Bullet
// lines of the form "- **Label**: value" fill the known fields; everything
// else in a section is ignored.
func ParseRestaurants(content string) []Restaurant {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	sections := strings.Split("\n"+content, "\n## ")

	var restaurants []Restaurant
	for _, section := range sections[1:] {
		lines := strings.Split(section, "\n")
		name := strings.TrimSpace(lines[0])
		if name == "" {
			continue
		}

		r := Restaurant{Name: name}
		for _, line := range lines[1:] {
			label, value, ok := bulletField(strings.TrimSpace(line))
			if !ok {
				continue
			}
			if field, known := restaurantFields[strings.ToLower(label)]; known {
				*field(&r) = value
			}
		}
		restaurants = append(restaurants, r)
	}
	return restaurants
}

// bulletField splits "- **Label**: value" (or "- **Label:** value")
func bulletField(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "- **")
	if !ok {
		return "", "", false
	}
	label, value, ok := strings.Cut(rest, "**")
	if !ok {
		return "", "", false
	}
	label = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	return label, value, label != ""
}

// Text is the representation that gets embedded and returned as a snippet
func (r Restaurant) Text() string {
	parts := []string{"Tên quán: " + r.Name}
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("Loại hình", r.Cuisine)
	add("Khu vực", r.Area)
	add("Địa chỉ", r.Address)
	add("Giá", r.PriceRange)
	add("Món đặc sắc", r.Specialties)
	add("Mô tả", r.Description)
	add("Điểm nổi bật", r.Highlights)
	return strings.Join(parts, ". ")
}

// ID is derived from the name so re-ingesting the same file updates in place
func (r Restaurant) ID() string {
	sum := md5.Sum([]byte(r.Name))
	return "restaurant_" + hex.EncodeToString(sum[:])[:12]
}

// RestaurantDocuments converts parsed restaurants into ingestable documents
func RestaurantDocuments(restaurants []Restaurant, now time.Time) []Document {
	docs := make([]Document, 0, len(restaurants))
	ingestedAt := now.UTC().Format(time.RFC3339)
	for _, r := range restaurants {
		text := r.Text()
		metadata := map[string]string{
			"name":          r.Name,
			"cuisine":       r.Cuisine,
			"location":      r.Area,
			"address":       r.Address,
			"price_range":   r.PriceRange,
			"specialties":   r.Specialties,
			"opening_hours": r.OpeningHours,
			"phone":         r.Phone,
			"rating":        r.Rating,
			"description":   r.Description,
			"highlights":    r.Highlights,
			"ingested_at":   ingestedAt,
		}
		metadata[vectorstore.TextKey] = text
		docs = append(docs, Document{ID: r.ID(), Text: text, Metadata: metadata})
	}
	return docs
}
