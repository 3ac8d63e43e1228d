package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Consumer is the marketplace record describing the holder of a license key.
type Consumer struct {
	Name                  string       `json:"name"`
	ExpireDate            *time.Time   `json:"expireDate,omitempty"`
	Distributor           *Distributor `json:"distributor,omitempty"`
	WhitelistedGithubOrgs []string     `json:"whitelistedGithubOrgs,omitempty"`
}

type Distributor struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

var ErrInvalidExpireDate = errors.New("invalid_expire_date")

var expireDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseExpireDate accepts RFC 3339, "Y-m-d H:i:s" and "Y-m-d" values, read as UTC.
func ParseExpireDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range expireDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpireDate, raw)
}

func (c *Consumer) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name                  string          `json:"name"`
		ExpireDate            json.RawMessage `json:"expireDate"`
		Distributor           json.RawMessage `json:"distributor"`
		WhitelistedGithubOrgs []string        `json:"whitelistedGithubOrgs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Consumer{
		Name:                  strings.TrimSpace(raw.Name),
		WhitelistedGithubOrgs: raw.WhitelistedGithubOrgs,
	}
	expires, err := decodeExpireDate(raw.ExpireDate)
	if err != nil {
		return err
	}
	out.ExpireDate = expires

	// distributor is either an object or a bare name
	if len(raw.Distributor) > 0 && string(raw.Distributor) != "null" {
		var dist Distributor
		if err := json.Unmarshal(raw.Distributor, &dist); err != nil {
			var name string
			if err := json.Unmarshal(raw.Distributor, &name); err != nil {
				return fmt.Errorf("decode distributor: %w", err)
			}
			dist = Distributor{Name: name}
		}
		if strings.TrimSpace(dist.Name) != "" {
			out.Distributor = &dist
		}
	}

	*c = out
	return nil
}

// IsEmpty reports whether the marketplace returned a record without any content.
func (c *Consumer) IsEmpty() bool {
	return c.Name == "" && c.ExpireDate == nil && c.Distributor == nil && len(c.WhitelistedGithubOrgs) == 0
}

// decodeExpireDate reads expireDate as a date string or unix seconds. Some
// backends send false, null, 0 or "" for licenses without an expiry.
func decodeExpireDate(raw json.RawMessage) (*time.Time, error) {
	value := strings.TrimSpace(string(raw))
	switch value {
	case "", "null", "false", "true", `""`, "0":
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		parsed, err := ParseExpireDate(text)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	}

	var seconds json.Number
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpireDate, value)
	}
	unix, err := seconds.Float64()
	if err != nil || unix <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpireDate, value)
	}
	parsed := time.Unix(int64(unix), 0).UTC()
	return &parsed, nil
}

// Plugin is a catalogue entry for a plugin or theme.
type Plugin struct {
	Name           string          `json:"name"`
	DisplayName    string          `json:"displayName,omitempty"`
	Description    string          `json:"description,omitempty"`
	Owner          string          `json:"owner,omitempty"`
	Homepage       string          `json:"homepage,omitempty"`
	IsTheme        bool            `json:"isTheme"`
	IsPaid         bool            `json:"isPaid"`
	IsFree         bool            `json:"isFree"`
	IsDownloadable bool            `json:"isDownloadable"`
	LatestVersion  string          `json:"latestVersion,omitempty"`
	LastUpdated    string          `json:"lastUpdated,omitempty"`
	NumDownloads   int64           `json:"numDownloads"`
	Versions       []PluginVersion `json:"versions,omitempty"`

	// IsActivated is filled in locally from the activation registry.
	IsActivated bool `json:"isActivated"`
}

type PluginVersion struct {
	Name         string `json:"name"`
	Release      string `json:"release,omitempty"`
	NumDownloads int64  `json:"numDownloads"`
	Download     string `json:"download,omitempty"`
}

// SearchResult is the envelope returned by the plugins and themes resources.
type SearchResult struct {
	Plugins []Plugin `json:"plugins"`
}

const (
	SortPopular = "popular"
	SortNewest  = "newest"
	SortAlpha   = "alpha"
)

const (
	PurchaseTypeAll  = ""
	PurchaseTypeFree = "free"
	PurchaseTypePaid = "paid"
)

func ValidSort(sort string) bool {
	switch sort {
	case SortPopular, SortNewest, SortAlpha:
		return true
	default:
		return false
	}
}

// SearchQuery describes a catalogue search.
type SearchQuery struct {
	Query        string
	Sort         string
	Themes       bool
	PurchaseType string
}

// Params renders q as request parameters.
func (q SearchQuery) Params() map[string]string {
	sort := q.Sort
	if !ValidSort(sort) {
		sort = SortPopular
	}
	params := map[string]string{
		"sort": sort,
	}
	if query := strings.TrimSpace(q.Query); query != "" {
		params["query"] = query
	}
	if q.PurchaseType == PurchaseTypeFree || q.PurchaseType == PurchaseTypePaid {
		params["purchase_type"] = q.PurchaseType
	}
	return params
}
