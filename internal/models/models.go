package models

import (
	"encoding/json"
	"time"
)

// ApplyType mirrors the apply button variants seen on a job posting.
type ApplyType string

const (
	ApplyTypeEasyApply ApplyType = "Easy Apply"
	ApplyTypeRegular   ApplyType = "Apply"
	ApplyTypeUnknown   ApplyType = "Unknown"
)

// SearchMetadata records the search query that discovered a job. It is
// attached to queue entries as provenance and is only replaced when the
// same job is rediscovered by a later search.
type SearchMetadata struct {
	Keywords         []string  `json:"keywords"`
	Location         string    `json:"location,omitempty"`
	ExperienceLevels []string  `json:"experience_levels,omitempty"`
	DiscoveredAt     time.Time `json:"discovered_at"`
}

// QueueEntry is one job identifier tracked by the scrape queue. AddedAt is
// set once at first discovery; LastUpdated is refreshed on every
// state-affecting write.
type QueueEntry struct {
	JobID          string         `json:"job_id"`
	SearchMetadata SearchMetadata `json:"search_metadata"`
	AddedAt        time.Time      `json:"added_at"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// ScrapeState is the persisted queue aggregate. A job id lives in at most
// one of the two partitions at any time.
type ScrapeState struct {
	ToScrape    []QueueEntry `json:"to_scrape"`
	Scraped     []QueueEntry `json:"scraped"`
	LastUpdated time.Time    `json:"last_updated"`
}

func NewScrapeState() *ScrapeState {
	return &ScrapeState{
		ToScrape:    []QueueEntry{},
		Scraped:     []QueueEntry{},
		LastUpdated: time.Now().UTC(),
	}
}

func (s ScrapeState) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

func (s *ScrapeState) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// JobInfo is one scraped job detail record as it appears in the detail
// log, one json object per line.
type JobInfo struct {
	JobID          string    `json:"job_id"`
	Title          string    `json:"job_title"`
	Company        string    `json:"company_name"`
	Location       string    `json:"location,omitempty"`
	PostedDaysAgo  string    `json:"posted_days_ago,omitempty"`
	Applicants     string    `json:"ppl_applied,omitempty"`
	ApplyLink      string    `json:"apply_link,omitempty"`
	ApplyType      ApplyType `json:"apply_type"`
	RawDescription string    `json:"raw_description,omitempty"`
	DiscoveredAt   time.Time `json:"discovered_at"`
}

func (j JobInfo) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *JobInfo) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}
