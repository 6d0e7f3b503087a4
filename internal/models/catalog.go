package models

import "time"

// Project is one portfolio entry.
type Project struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	FullDescription string   `json:"fullDescription,omitempty"`
	Technologies    []string `json:"technologies"`
	Image           string   `json:"image,omitempty"`
	DemoLink        string   `json:"demoLink,omitempty"`
	GithubLink      string   `json:"githubLink,omitempty"`
	Views           int      `json:"views"`
	Category        string   `json:"category"`
	Featured        bool     `json:"featured"`
	Status          string   `json:"status"`
	Year            int      `json:"year,omitempty"`
	Client          string   `json:"client,omitempty"`
	Challenge       string   `json:"challenge,omitempty"`
	Solution        string   `json:"solution,omitempty"`
	Results         string   `json:"results,omitempty"`
}

// Achievement is an award, certificate or similar milestone.
type Achievement struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization,omitempty"`
	Date         string   `json:"date,omitempty"`
	Description  string   `json:"description"`
	Image        string   `json:"image,omitempty"`
	Category     string   `json:"category,omitempty"`
	Importance   string   `json:"importance,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Link         string   `json:"link,omitempty"`
}

// FAQ is one question with its answer.
type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Message is a contact form submission.
type Message struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required,max=200"`
	Email      string    `json:"email" validate:"required,email"`
	Company    string    `json:"company,omitempty" validate:"max=200"`
	Subject    string    `json:"subject,omitempty" validate:"max=300"`
	Budget     string    `json:"budget,omitempty"`
	Body       string    `json:"message" validate:"required,min=10,max=5000"`
	Newsletter bool      `json:"newsletter"`
	Read       bool      `json:"read"`
	Date       time.Time `json:"date"`
}

// Activity is one entry of the admin activity feed.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
}

// Analytics holds the site counters shown on the admin dashboard.
type Analytics struct {
	ContactSubmissions int        `json:"contactSubmissions"`
	ProjectViews       int        `json:"projectViews"`
	Activities         []Activity `json:"activities,omitempty"`
}
