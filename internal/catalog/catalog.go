// Package catalog serves the portfolio data shown on the site pages:
// projects, achievements, FAQs, contact messages and preferences. Data lives
// in the site record of the local store; built-in defaults are used until
// the owner saves their own.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/store"
)

// DefaultPageSize is the number of projects shown before "load more".
const DefaultPageSize = 6

// maxActivities bounds the admin activity feed.
const maxActivities = 50

var (
	ErrNotFound = errors.New("catalog item not found")
	ErrInvalid  = errors.New("invalid catalog item")
)

// Service reads and writes catalog data.
type Service struct {
	store    store.Storage
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a catalog service.
func New(st store.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		logger:   logger,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// load reads the site record, falling back to an empty record when it is
// absent or malformed.
func (s *Service) load() (*models.SiteContent, error) {
	site := &models.SiteContent{}
	data, err := s.store.Get(models.KeySiteContent)
	if errors.Is(err, store.ErrNotFound) {
		return site, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, site); err != nil {
		s.logger.Warn("site record is malformed, using defaults", "error", err)
		return &models.SiteContent{}, nil
	}
	return site, nil
}

// update applies fn to the site record in one store transaction. Catalog
// lists still on their defaults are materialized first so fn edits them.
func (s *Service) update(fn func(site *models.SiteContent) error) error {
	return s.store.Update(models.KeySiteContent, func(old []byte) ([]byte, error) {
		site := &models.SiteContent{}
		if old != nil {
			if err := json.Unmarshal(old, site); err != nil {
				s.logger.Warn("replacing malformed site record", "error", err)
				site = &models.SiteContent{}
			}
		}
		if site.Pages == nil {
			site.Pages = make(map[string]models.PageRecord)
		}
		if site.Projects == nil {
			site.Projects = DefaultProjects()
		}
		if site.Achievements == nil {
			site.Achievements = DefaultAchievements()
		}
		if site.FAQs == nil {
			site.FAQs = DefaultFAQs()
		}
		if site.Analytics == nil {
			site.Analytics = &models.Analytics{}
		}
		if err := fn(site); err != nil {
			return nil, err
		}
		return json.Marshal(site)
	})
}

func (s *Service) record(a *models.Analytics, kind, description string) {
	a.Activities = append([]models.Activity{{
		ID:          uuid.NewString(),
		Type:        kind,
		Description: description,
		Time:        s.now(),
	}}, a.Activities...)
	if len(a.Activities) > maxActivities {
		a.Activities = a.Activities[:maxActivities]
	}
}

// ProjectFilter selects a window of projects.
type ProjectFilter struct {
	Category string // "" or "all" matches every category
	Query    string // case-insensitive substring of title, description or a technology
	Offset   int
	Limit    int // <= 0 means DefaultPageSize
}

// ProjectPage is one window of filtered projects.
type ProjectPage struct {
	Items   []models.Project `json:"items"`
	Total   int              `json:"total"`
	HasMore bool             `json:"has_more"`
}

// Projects returns the projects matching filter.
func (s *Service) Projects(f ProjectFilter) (*ProjectPage, error) {
	site, err := s.load()
	if err != nil {
		return nil, err
	}
	all := site.Projects
	if all == nil {
		all = DefaultProjects()
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	var matched []models.Project
	for _, p := range all {
		if f.Category != "" && f.Category != "all" && p.Category != f.Category {
			continue
		}
		if q != "" && !projectMatches(p, q) {
			continue
		}
		matched = append(matched, p)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	start := min(max(f.Offset, 0), len(matched))
	end := min(start+limit, len(matched))

	return &ProjectPage{
		Items:   append([]models.Project{}, matched[start:end]...),
		Total:   len(matched),
		HasMore: end < len(matched),
	}, nil
}

func projectMatches(p models.Project, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	return slices.ContainsFunc(p.Technologies, func(t string) bool {
		return strings.Contains(strings.ToLower(t), q)
	})
}

// Categories returns the distinct project categories in first-seen order.
func (s *Service) Categories() ([]string, error) {
	page, err := s.Projects(ProjectFilter{Limit: 1 << 20})
	if err != nil {
		return nil, err
	}
	var cats []string
	for _, p := range page.Items {
		if !slices.Contains(cats, p.Category) {
			cats = append(cats, p.Category)
		}
	}
	return cats, nil
}

// Project returns one project by ID.
func (s *Service) Project(id string) (*models.Project, error) {
	page, err := s.Projects(ProjectFilter{Limit: 1 << 20})
	if err != nil {
		return nil, err
	}
	for _, p := range page.Items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
}

// ViewProject returns a project and counts the view.
func (s *Service) ViewProject(id string) (*models.Project, error) {
	var viewed *models.Project
	err := s.update(func(site *models.SiteContent) error {
		i := slices.IndexFunc(site.Projects, func(p models.Project) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: project %s", ErrNotFound, id)
		}
		site.Projects[i].Views++
		site.Analytics.ProjectViews++
		p := site.Projects[i]
		viewed = &p
		return nil
	})
	return viewed, err
}

// AddProject stores a new project and returns it with its assigned ID.
func (s *Service) AddProject(p models.Project) (*models.Project, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, fmt.Errorf("%w: project title is required", ErrInvalid)
	}
	p.ID = uuid.NewString()
	if p.Status == "" {
		p.Status = "completed"
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	err := s.update(func(site *models.SiteContent) error {
		site.Projects = append(site.Projects, p)
		s.record(site.Analytics, "project", "Project added: "+p.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(id string) error {
	return s.update(func(site *models.SiteContent) error {
		n := len(site.Projects)
		site.Projects = slices.DeleteFunc(site.Projects, func(p models.Project) bool { return p.ID == id })
		if len(site.Projects) == n {
			return fmt.Errorf("%w: project %s", ErrNotFound, id)
		}
		return nil
	})
}

// Achievements returns the achievements, optionally limited to one category.
func (s *Service) Achievements(category string) ([]models.Achievement, error) {
	site, err := s.load()
	if err != nil {
		return nil, err
	}
	all := site.Achievements
	if all == nil {
		all = DefaultAchievements()
	}
	if category == "" || category == "all" {
		return all, nil
	}
	out := []models.Achievement{}
	for _, a := range all {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddAchievement stores a new achievement.
func (s *Service) AddAchievement(a models.Achievement) (*models.Achievement, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return nil, fmt.Errorf("%w: achievement title is required", ErrInvalid)
	}
	a.ID = uuid.NewString()
	err := s.update(func(site *models.SiteContent) error {
		site.Achievements = append(site.Achievements, a)
		s.record(site.Analytics, "achievement", "Achievement added: "+a.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAchievement removes an achievement.
func (s *Service) DeleteAchievement(id string) error {
	return s.update(func(site *models.SiteContent) error {
		n := len(site.Achievements)
		site.Achievements = slices.DeleteFunc(site.Achievements, func(a models.Achievement) bool { return a.ID == id })
		if len(site.Achievements) == n {
			return fmt.Errorf("%w: achievement %s", ErrNotFound, id)
		}
		return nil
	})
}

// FAQs returns the questions and answers.
func (s *Service) FAQs() ([]models.FAQ, error) {
	site, err := s.load()
	if err != nil {
		return nil, err
	}
	if site.FAQs == nil {
		return DefaultFAQs(), nil
	}
	return site.FAQs, nil
}

// AddFAQ stores a new question. An empty question is rejected.
func (s *Service) AddFAQ(question, answer string) (*models.FAQ, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalid)
	}
	f := models.FAQ{ID: uuid.NewString(), Question: question, Answer: strings.TrimSpace(answer)}
	err := s.update(func(site *models.SiteContent) error {
		site.FAQs = append(site.FAQs, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFAQ removes a question.
func (s *Service) DeleteFAQ(id string) error {
	return s.update(func(site *models.SiteContent) error {
		n := len(site.FAQs)
		site.FAQs = slices.DeleteFunc(site.FAQs, func(f models.FAQ) bool { return f.ID == id })
		if len(site.FAQs) == n {
			return fmt.Errorf("%w: faq %s", ErrNotFound, id)
		}
		return nil
	})
}
