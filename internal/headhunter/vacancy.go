package headhunter

import (
	"fmt"
	"sort"
	"strings"
)

// Experience identifiers used by the HeadHunter API.
const (
	ExperienceNone     = "noExperience"
	ExperienceJunior   = "between1And3"
	ExperienceMid      = "between3And6"
	ExperienceSenior   = "moreThan6"
	LevelJunior        = "Junior"
	LevelMid           = "Mid-Level"
	LevelSenior        = "Senior"
	defaultSalaryLevel = LevelMid
)

type Vacancies struct {
	Items []*Vacancy
}

type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Area struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

type KeySkill struct {
	Name string `json:"name,omitempty"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

type Vacancy struct {
	ID                string     `json:"id,omitempty"`
	Name              string     `json:"name,omitempty"`
	Area              Area       `json:"area,omitempty"`
	Salary            *Salary    `json:"salary,omitempty"`
	Experience        Named      `json:"experience,omitempty"`
	Schedule          Named      `json:"schedule,omitempty"`
	Employment        Named      `json:"employment,omitempty"`
	Employer          Employer   `json:"employer,omitempty"`
	AlternateURL      string     `json:"alternate_url,omitempty"`
	Description       string     `json:"description,omitempty"`
	KeySkills         []KeySkill `json:"key_skills,omitempty"`
	Archived          bool       `json:"archived,omitempty"`
	Snipet            Snippet    `json:"snippet,omitempty"`
	ProfessionalRoles []Named    `json:"professional_roles,omitempty"`
	PublishedAt       string     `json:"published_at,omitempty"`
}

// Skills returns the vacancy key skills with blanks removed.
func (va *Vacancy) Skills() []string {
	skills := make([]string, 0, len(va.KeySkills))
	for _, s := range va.KeySkills {
		if name := strings.TrimSpace(s.Name); name != "" {
			skills = append(skills, name)
		}
	}
	return skills
}

// Level maps the vacancy experience requirement to a seniority level.
func (va *Vacancy) Level() string {
	switch va.Experience.ID {
	case ExperienceNone, ExperienceJunior:
		return LevelJunior
	case ExperienceMid:
		return LevelMid
	case ExperienceSenior:
		return LevelSenior
	default:
		return defaultSalaryLevel
	}
}

// HasSalary reports whether at least one salary bound is published.
func (va *Vacancy) HasSalary() bool {
	return va.Salary != nil && (va.Salary.From > 0 || va.Salary.To > 0)
}

func (va *Vacancy) String() string {
	return fmt.Sprintf("%s at %s", va.Name, va.Employer.Name)
}

// SalaryBand is the published salary range for one seniority level.
type SalaryBand struct {
	Level    string `json:"level" yaml:"level"`
	Min      int    `json:"min" yaml:"min"`
	Max      int    `json:"max" yaml:"max"`
	Currency string `json:"currency" yaml:"currency"`
	Samples  int    `json:"samples" yaml:"samples"`
}

var levelOrder = map[string]int{LevelJunior: 0, LevelMid: 1, LevelSenior: 2}

// SalaryBands groups published salaries by seniority level. Vacancies in a
// currency other than the first seen are skipped.
func (v *Vacancies) SalaryBands() []SalaryBand {
	bands := make(map[string]*SalaryBand)
	currency := ""

	for _, vacancy := range v.Items {
		if !vacancy.HasSalary() {
			continue
		}
		if currency == "" {
			currency = vacancy.Salary.Currency
		}
		if vacancy.Salary.Currency != currency {
			continue
		}

		low, high := vacancy.Salary.From, vacancy.Salary.To
		if low == 0 {
			low = high
		}
		if high == 0 {
			high = low
		}

		level := vacancy.Level()
		band, ok := bands[level]
		if !ok {
			bands[level] = &SalaryBand{Level: level, Min: low, Max: high, Currency: currency, Samples: 1}
			continue
		}
		if low < band.Min {
			band.Min = low
		}
		if high > band.Max {
			band.Max = high
		}
		band.Samples++
	}

	result := make([]SalaryBand, 0, len(bands))
	for _, band := range bands {
		result = append(result, *band)
	}
	sort.Slice(result, func(i, j int) bool {
		return levelOrder[result[i].Level] < levelOrder[result[j].Level]
	})
	return result
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// RemoveByIndex remove vacancy from list by index. Do not preserve order.
func (v *Vacancies) RemoveByIndex(idx int) {
	v.Items[idx] = v.Items[len(v.Items)-1]
	v.Items = v.Items[:len(v.Items)-1]
}

// ExcludeArchived drops archived vacancies and returns their IDs.
func (v *Vacancies) ExcludeArchived() []string {
	var excluded []string
	for idx := len(v.Items) - 1; idx >= 0; idx-- {
		if v.Items[idx].Archived {
			excluded = append(excluded, v.Items[idx].ID)
			v.RemoveByIndex(idx)
		}
	}
	return excluded
}
