package search

import (
	"net/url"
	"strings"
	"time"

	"github.com/JingliCheng/Fireball/internal/models"
)

const searchBaseURL = "https://www.linkedin.com/jobs/search/?"

// experienceLevelCodes maps the level names accepted in a Query to
// LinkedIn's f_E filter codes. Unknown names are ignored.
var experienceLevelCodes = map[string]string{
	"internship": "1",
	"entry":      "2",
	"associate":  "3",
	"mid-senior": "4",
	"director":   "5",
	"executive":  "6",
}

// Query holds the parameters of one job search.
type Query struct {
	Keywords         []string
	Location         string
	ExperienceLevels []string
}

// Metadata stamps the query into provenance metadata for the entries it
// discovers.
func (q Query) Metadata() models.SearchMetadata {
	return models.SearchMetadata{
		Keywords:         q.Keywords,
		Location:         q.Location,
		ExperienceLevels: q.ExperienceLevels,
		DiscoveredAt:     time.Now().UTC(),
	}
}

// BuildURL assembles the search results URL for the query.
func BuildURL(q Query) string {
	params := []string{"keywords=" + url.QueryEscape(strings.Join(q.Keywords, " "))}
	if q.Location != "" {
		params = append(params, "location="+url.QueryEscape(q.Location))
	}
	var codes []string
	for _, level := range q.ExperienceLevels {
		if code, ok := experienceLevelCodes[level]; ok {
			codes = append(codes, code)
		}
	}
	if len(codes) > 0 {
		params = append(params, "f_E="+strings.Join(codes, ","))
	}
	return searchBaseURL + strings.Join(params, "&")
}
