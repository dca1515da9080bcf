package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/titanous/json5"

	apperrors "sjsage522/pricetracker/pkg/errors"
)

// CitySource is one entry of the cities file: a city and its listing page.
type CitySource struct {
	Name string
	URL  string
}

// LoadCities reads a JSON (or JSON5) object mapping city name to listing URL.
// Entries are returned sorted by city name.
func LoadCities(path string) ([]CitySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("read cities file", err)
	}
	return ParseCities(data)
}

// ParseCities decodes the cities file contents.
func ParseCities(data []byte) ([]CitySource, error) {
	var raw map[string]string
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfiguration("parse cities file", err)
	}

	cities := make([]CitySource, 0, len(raw))
	for name, link := range raw {
		name = strings.TrimSpace(name)
		link = strings.TrimSpace(link)
		if name == "" {
			return nil, apperrors.NewConfiguration("cities file contains an empty city name", nil)
		}
		u, err := url.Parse(link)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("city %q has an invalid URL %q", name, link), err)
		}
		cities = append(cities, CitySource{Name: name, URL: link})
	}

	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}
