package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/store"
)

// SubmitMessage validates and stores a contact form submission, newest
// first, and counts it in the analytics.
func (s *Service) SubmitMessage(m models.Message) (*models.Message, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)
	if err := s.validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed %q", ErrInvalid, verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	m.ID = uuid.NewString()
	m.Read = false
	m.Date = s.now()
	err := s.update(func(site *models.SiteContent) error {
		site.Messages = append([]models.Message{m}, site.Messages...)
		site.Analytics.ContactSubmissions++
		s.record(site.Analytics, "contact", "New contact form submission")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages returns the stored submissions, newest first.
func (s *Service) Messages() ([]models.Message, error) {
	site, err := s.load()
	if err != nil {
		return nil, err
	}
	if site.Messages == nil {
		return []models.Message{}, nil
	}
	return site.Messages, nil
}

// MarkRead flags a message as read.
func (s *Service) MarkRead(id string) error {
	return s.update(func(site *models.SiteContent) error {
		i := slices.IndexFunc(site.Messages, func(m models.Message) bool { return m.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: message %s", ErrNotFound, id)
		}
		site.Messages[i].Read = true
		return nil
	})
}

// Analytics returns the site counters.
func (s *Service) Analytics() (*models.Analytics, error) {
	site, err := s.load()
	if err != nil {
		return nil, err
	}
	if site.Analytics == nil {
		return &models.Analytics{}, nil
	}
	return site.Analytics, nil
}

// Preferences returns the saved display settings or the defaults.
func (s *Service) Preferences() (models.Preferences, error) {
	prefs := models.DefaultPreferences()
	err := store.GetJSON(s.store, models.KeyPreferences, &prefs)
	if errors.Is(err, store.ErrNotFound) {
		return prefs, nil
	}
	if err != nil {
		s.logger.Warn("preferences are malformed, using defaults", "error", err)
		return models.DefaultPreferences(), nil
	}
	return prefs, nil
}

var (
	themes    = []string{"light", "dark"}
	languages = []string{"ru", "en"}
)

// SetPreferences validates and saves the display settings.
func (s *Service) SetPreferences(p models.Preferences) error {
	if !slices.Contains(themes, p.Theme) {
		return fmt.Errorf("%w: theme must be one of %v", ErrInvalid, themes)
	}
	if !slices.Contains(languages, p.Language) {
		return fmt.Errorf("%w: language must be one of %v", ErrInvalid, languages)
	}
	return store.PutJSON(s.store, models.KeyPreferences, p)
}

// DataFile is a catalog list serialized for publishing.
type DataFile struct {
	Path    string
	Content []byte
}

// DataFiles returns the JSON files published next to the pages:
// data/projects.json, data/achievements.json and data/faqs.json.
func (s *Service) DataFiles() ([]DataFile, error) {
	projects, err := s.Projects(ProjectFilter{Limit: 1 << 20})
	if err != nil {
		return nil, err
	}
	achievements, err := s.Achievements("")
	if err != nil {
		return nil, err
	}
	faqs, err := s.FAQs()
	if err != nil {
		return nil, err
	}

	sets := []struct {
		name string
		v    any
	}{
		{"projects", projects.Items},
		{"achievements", achievements},
		{"faqs", faqs},
	}
	files := make([]DataFile, 0, len(sets))
	for _, set := range sets {
		data, err := json.MarshalIndent(set.v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", set.name, err)
		}
		files = append(files, DataFile{Path: "data/" + set.name + ".json", Content: data})
	}
	return files, nil
}
