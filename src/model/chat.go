package model

import (
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Intent is the (dish, place) pair extracted from one utterance. Empty means absent.
type Intent struct {
	Dish  string `json:"food,omitempty"`
	Place string `json:"location,omitempty"`
}

func (i Intent) Empty() bool {
	return i.Dish == "" && i.Place == ""
}

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// String renders the "lat,lon" form used by places providers
func (c Coordinates) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// Turn is one message of the caller supplied history
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserPrompts returns the contents of the user-authored turns in order
func UserPrompts(turns []Turn) []string {
	var prompts []string
	for _, t := range turns {
		if strings.EqualFold(t.Role, RoleUser) && strings.TrimSpace(t.Content) != "" {
			prompts = append(prompts, t.Content)
		}
	}
	return prompts
}

// ReverseGeocode is the coarse description of a coordinate
type ReverseGeocode struct {
	DisplayName    string            `json:"display_name"`
	AreaName       string            `json:"area_name"`
	AddressDetails map[string]string `json:"address_details"`
}
