package ticker

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const Unknown = "UNKNOWN"

//go:embed companies.yaml
var companiesYAML []byte

type Company struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

var (
	parenthesized = regexp.MustCompile(`\(([A-Z]{1,5})\)`)
	beforeQuarter = regexp.MustCompile(`\b([A-Z]{1,5})\s+Q[1-4]`)
	userSymbol    = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)
)

type Resolver struct {
	companies []Company
}

// NewResolver loads the embedded company table.
func NewResolver() (*Resolver, error) {
	var companies []Company
	if err := yaml.Unmarshal(companiesYAML, &companies); err != nil {
		return nil, fmt.Errorf("parse companies.yaml: %w", err)
	}
	for i := range companies {
		companies[i].Name = strings.ToLower(strings.TrimSpace(companies[i].Name))
		companies[i].Ticker = strings.ToUpper(strings.TrimSpace(companies[i].Ticker))
	}
	return &Resolver{companies: companies}, nil
}

func MustResolver() *Resolver {
	r, err := NewResolver()
	if err != nil {
		panic(err)
	}
	return r
}

// FromTitle guesses a ticker from a free-text title. It never fails; titles with no signal
// yield Unknown.
func (r *Resolver) FromTitle(title string) string {
	if m := parenthesized.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	if m := beforeQuarter.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	lower := strings.ToLower(title)
	for _, c := range r.companies {
		if c.Name != "" && strings.Contains(lower, c.Name) {
			return c.Ticker
		}
	}
	return Unknown
}

// Resolve returns the user-supplied ticker when present (trimmed, uppercased) and otherwise
// falls back to FromTitle. The second result reports whether the user value was used.
func (r *Resolver) Resolve(userTicker, title string) (string, bool) {
	if t := Normalize(userTicker); t != "" {
		return t, true
	}
	return r.FromTitle(title), false
}

func Normalize(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// Valid reports whether a normalized user ticker can name stored artifacts: 1 to 10 of A-Z,
// 0-9, '.' and '-'.
func Valid(t string) bool {
	return userSymbol.MatchString(t)
}
