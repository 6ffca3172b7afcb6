// Package content holds the static portfolio panels: projects, FAQ,
// experience timeline, project categories and media links.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Project struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Link        string `yaml:"link" json:"link"`
}

type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type TimelinePoint struct {
	Year              int `yaml:"year" json:"year"`
	ProjectsCompleted int `yaml:"projects_completed" json:"projects_completed"`
}

type Category struct {
	Name     string `yaml:"name" json:"name"`
	Projects int    `yaml:"projects" json:"projects"`
}

type Media struct {
	ImageURL     string `yaml:"image_url" json:"image_url"`
	ImageCaption string `yaml:"image_caption" json:"image_caption"`
	VideoURL     string `yaml:"video_url" json:"video_url"`
}

// EmbedURL returns a player URL for VideoURL, or "" when the host has no
// known embed form. Only YouTube links are recognised.
func (m Media) EmbedURL() string {
	u, err := url.Parse(m.VideoURL)
	if err != nil {
		return ""
	}

	var id string
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		} else if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			id = rest
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return "https://www.youtube.com/embed/" + url.PathEscape(id)
}

type Portfolio struct {
	Projects   []Project       `yaml:"projects" json:"projects"`
	FAQ        []FAQ           `yaml:"faq" json:"faq"`
	Timeline   []TimelinePoint `yaml:"timeline" json:"timeline"`
	Categories []Category      `yaml:"categories" json:"categories"`
	Media      Media           `yaml:"media" json:"media"`
}

// Load reads the portfolio from path, or the built-in portfolio when path
// is empty.
func Load(path string) (Portfolio, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Portfolio{}, fmt.Errorf("read portfolio content: %w", err)
	}
	return Parse(data)
}

func Default() Portfolio {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded portfolio content: %v", err))
	}
	return p
}

func Parse(data []byte) (Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Portfolio{}, fmt.Errorf("parse portfolio content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

func (p Portfolio) Validate() error {
	var errs []error
	for i, pr := range p.Projects {
		if strings.TrimSpace(pr.Name) == "" {
			errs = append(errs, fmt.Errorf("project %d: name is required", i))
		}
	}
	for i, f := range p.FAQ {
		if strings.TrimSpace(f.Question) == "" {
			errs = append(errs, fmt.Errorf("faq %d: question is required", i))
		}
	}
	return errors.Join(errs...)
}

// MaxProjectsCompleted is the largest timeline value, used to scale the
// timeline bars.
func (p Portfolio) MaxProjectsCompleted() int {
	top := 0
	for _, t := range p.Timeline {
		if t.ProjectsCompleted > top {
			top = t.ProjectsCompleted
		}
	}
	return top
}

func (p Portfolio) MaxCategoryProjects() int {
	top := 0
	for _, c := range p.Categories {
		if c.Projects > top {
			top = c.Projects
		}
	}
	return top
}
