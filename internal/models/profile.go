package models

import (
	"strings"
	"time"
)

// Profile describes the person whose moments are narrated.
type Profile struct {
	Name       string   `json:"name" yaml:"name"`
	Age        int      `json:"age" yaml:"age"`
	Occupation string   `json:"occupation" yaml:"occupation"`
	HomeCity   string   `json:"home_city" yaml:"home_city"`
	Interests  []string `json:"interests" yaml:"interests"`
	// Timezone is an IANA zone name for wall-clock framing of moments
	// without an embedded capture time.
	Timezone string `json:"timezone,omitempty" yaml:"timezone"`
}

// Location resolves Timezone. An empty zone is UTC.
func (p Profile) Location() (*time.Location, error) {
	if strings.TrimSpace(p.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(strings.TrimSpace(p.Timezone))
}

// HasInterest reports whether any profile interest matches one of keywords,
// case-insensitively.
func (p Profile) HasInterest(keywords ...string) bool {
	for _, in := range p.Interests {
		in = strings.ToLower(strings.TrimSpace(in))
		for _, k := range keywords {
			if in == strings.ToLower(k) {
				return true
			}
		}
	}
	return false
}

// IsHome reports whether place is in the profile's home city. An unknown
// place or home city is never home.
func (p Profile) IsHome(place *Place) bool {
	if place == nil || place.City == "" || p.HomeCity == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(place.City), strings.TrimSpace(p.HomeCity))
}

// IsAway reports whether place is known and outside the home city.
func (p Profile) IsAway(place *Place) bool {
	if place == nil || place.City == "" {
		return false
	}
	return !p.IsHome(place)
}
