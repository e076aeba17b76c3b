package parse

import (
	"math"
	"regexp"

	"github.com/tidwall/gjson"
)

// Category keys in the order the model is asked to return them.
var CategoryKeys = []string{"skills", "experience", "education", "keywords", "certifications"}

var categoryNames = map[string]string{
	"skills":         "Skills",
	"experience":     "Experience",
	"education":      "Education",
	"keywords":       "Keywords",
	"certifications": "Certifications",
}

var categoryRes = func() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(CategoryKeys))
	for _, key := range CategoryKeys {
		res[key] = regexp.MustCompile(`(?i)` + key + `"?\s*[:\-]\s*(\d{1,3})`)
	}
	return res
}()

type Category struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Categories holds one score per CategoryKeys entry, in that order.
type Categories struct {
	Scores []Category `json:"scores"`
	Source Source     `json:"source"`
}

// ParseCategories reads the category JSON object embedded in text. When no
// valid object is present each category is searched as "key: N"; a
// category that cannot be found scores 0.
func ParseCategories(text string) Categories {
	if obj, ok := ExtractJSONObject(text); ok && gjson.Valid(obj) {
		parsed := gjson.Parse(obj)
		scores := make([]Category, 0, len(CategoryKeys))
		for _, key := range CategoryKeys {
			scores = append(scores, Category{Name: categoryNames[key], Score: gjsonScore(parsed.Get(key))})
		}
		return Categories{Scores: scores, Source: SourceStructured}
	}

	found := false
	scores := make([]Category, 0, len(CategoryKeys))
	for _, key := range CategoryKeys {
		score := 0
		if m := categoryRes[key].FindStringSubmatch(text); m != nil {
			score = atoiClamp(m[1])
			found = true
		}
		scores = append(scores, Category{Name: categoryNames[key], Score: score})
	}

	source := SourceRegex
	if !found {
		source = SourceDefault
	}
	return Categories{Scores: scores, Source: source}
}

// Selection is the rounded mean of all category scores. Halves round to
// even.
func (c Categories) Selection() int {
	if len(c.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range c.Scores {
		sum += s.Score
	}
	return int(math.RoundToEven(float64(sum) / float64(len(c.Scores))))
}

// Split partitions category names into those at or above the selection
// percentage and those below it.
func (c Categories) Split() (positive, negative []string) {
	selection := c.Selection()
	positive, negative = []string{}, []string{}
	for _, s := range c.Scores {
		if s.Score >= selection {
			positive = append(positive, s.Name)
		} else {
			negative = append(negative, s.Name)
		}
	}
	return positive, negative
}

// Map returns the scores keyed by category name.
func (c Categories) Map() map[string]int {
	m := make(map[string]int, len(c.Scores))
	for _, s := range c.Scores {
		m[s.Name] = s.Score
	}
	return m
}
