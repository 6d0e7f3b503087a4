package models

import "time"

// Keys of the records held in the local store.
const (
	KeySiteContent = "siteContent"
	KeyPreferences = "preferences"
	KeyGitHubToken = "githubToken"
	sessionPrefix  = "session:"
)

// SessionKey returns the store key of a page's editing session.
func SessionKey(pageID string) string {
	return sessionPrefix + pageID
}

// PageRecord is the saved form of one page.
type PageRecord struct {
	HTMLContent  string    `json:"htmlContent"`
	LastModified time.Time `json:"lastModified"`
}

// SiteContent is the record stored under KeySiteContent. Pages are keyed by
// page ID. The catalog fields are nil until first written, which readers
// treat as "use the built-in defaults".
type SiteContent struct {
	Pages        map[string]PageRecord `json:"pages"`
	Projects     []Project             `json:"projects"`
	Achievements []Achievement         `json:"achievements"`
	FAQs         []FAQ                 `json:"faqs"`
	Messages     []Message             `json:"messages,omitempty"`
	Analytics    *Analytics            `json:"analytics,omitempty"`
}

// Preferences holds the visitor-facing display settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Language: "ru"}
}

// EditorState is the persisted working session of one page: the live
// document, the selected block and the undo history.
type EditorState struct {
	Document  *Document `json:"document"`
	Selected  string    `json:"selected,omitempty"`
	History   [][]byte  `json:"history"`
	Cursor    int       `json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}
