package plugins

import (
	"context"
	"strings"

	"github.com/smallbiznis/marketplace/internal/consumer"
	"github.com/smallbiznis/marketplace/internal/marketplace/domain"
)

const (
	ShowPlugins = "plugins"
	ShowThemes  = "themes"

	ModeAdmin = "admin"
	ModeUser  = "user"
)

// OverviewRequest holds the raw query of the overview page. Empty fields take defaults.
type OverviewRequest struct {
	Show  string
	Query string
	Sort  string
	Type  string
	Mode  string
}

type Overview struct {
	Show                     string               `json:"show"`
	Type                     string               `json:"type"`
	Mode                     string               `json:"mode"`
	Query                    string               `json:"query"`
	Sort                     string               `json:"sort"`
	ShowThemes               bool                 `json:"showThemes"`
	ShowPlugins              bool                 `json:"showPlugins"`
	ShowFree                 bool                 `json:"showFree"`
	ShowPaid                 bool                 `json:"showPaid"`
	PluginsToShow            []domain.Plugin      `json:"pluginsToShow"`
	NumAvailablePlugins      int                  `json:"numAvailablePlugins"`
	NumFreePlugins           int                  `json:"numFreePlugins"`
	NumPaidPlugins           int                  `json:"numPaidPlugins"`
	NumThemes                int                  `json:"numThemes"`
	Consumer                 *consumer.View       `json:"consumer,omitempty"`
	Distributor              *domain.Distributor  `json:"distributor,omitempty"`
	WhitelistedGithubOrgs    []string             `json:"whitelistedGithubOrgs,omitempty"`
	HasAccessToPaidPlugins   bool                 `json:"hasAccessToPaidPlugins"`
	Entitlement              consumer.Entitlement `json:"entitlement"`
	IsMultiServerEnvironment bool                 `json:"isMultiServerEnvironment"`
}

// Overview assembles the marketplace landing data for one request.
func (s *Service) Overview(ctx context.Context, req OverviewRequest) (*Overview, error) {
	resolver := s.consumers.New()
	entitlement := resolver.Entitlement(ctx)

	defaultType := domain.PurchaseTypeFree
	if entitlement.PaidAccess {
		defaultType = domain.PurchaseTypePaid
	}
	requestedType := strings.TrimSpace(req.Type)
	if requestedType == "" {
		requestedType = defaultType
	}

	sortBy := strings.TrimSpace(req.Sort)
	if !domain.ValidSort(sortBy) {
		sortBy = domain.SortPopular
	}
	mode := strings.TrimSpace(req.Mode)
	if mode != ModeUser && mode != ModeAdmin {
		mode = ModeAdmin
	}
	show := strings.TrimSpace(req.Show)
	if show == "" {
		show = ShowPlugins
	}

	free, err := s.Search(ctx, domain.SearchQuery{Sort: domain.SortPopular, PurchaseType: domain.PurchaseTypeFree})
	if err != nil {
		return nil, err
	}
	paid, err := s.Search(ctx, domain.SearchQuery{Sort: domain.SortPopular, PurchaseType: domain.PurchaseTypePaid})
	if err != nil {
		return nil, err
	}
	themes, err := s.Search(ctx, domain.SearchQuery{Sort: domain.SortPopular, Themes: true})
	if err != nil {
		return nil, err
	}

	showThemes := show == ShowThemes
	showPaid := requestedType == domain.PurchaseTypePaid

	searchType := domain.PurchaseTypeAll
	switch {
	case showThemes:
	case showPaid:
		searchType = domain.PurchaseTypePaid
	default:
		searchType = domain.PurchaseTypeFree
	}

	query := strings.TrimSpace(req.Query)
	toShow, err := s.Search(ctx, domain.SearchQuery{Query: query, Sort: sortBy, Themes: showThemes, PurchaseType: searchType})
	if err != nil {
		return nil, err
	}

	return &Overview{
		Show:                     show,
		Type:                     searchType,
		Mode:                     mode,
		Query:                    query,
		Sort:                     sortBy,
		ShowThemes:               showThemes,
		ShowPlugins:              !showThemes,
		ShowFree:                 !showPaid,
		ShowPaid:                 showPaid,
		PluginsToShow:            toShow,
		NumAvailablePlugins:      len(free) + len(paid) + len(themes),
		NumFreePlugins:           len(free),
		NumPaidPlugins:           len(paid),
		NumThemes:                len(themes),
		Consumer:                 resolver.View(ctx),
		Distributor:              resolver.Distributor(ctx),
		WhitelistedGithubOrgs:    resolver.WhitelistedGithubOrgs(ctx),
		HasAccessToPaidPlugins:   entitlement.PaidAccess,
		Entitlement:              entitlement,
		IsMultiServerEnvironment: s.settings.Get().General.MultiServerEnvironment,
	}, nil
}
