package scoring

import (
	"math"
	"slices"
	"strings"
)

const (
	MaxScore           = 100
	skillPoints        = 2
	maxSkillsBonus     = 20
	experiencePoints   = 3
	maxExperienceBonus = 30
)

// Input holds the candidate fields the score depends on.
type Input struct {
	ResumeText      string
	Skills          []string
	Position        string
	YearsExperience int
}

// Breakdown explains how a score was reached.
type Breakdown struct {
	Family          string   `json:"family,omitempty"`
	MatchedKeywords []string `json:"matched_keywords"`
	KeywordCount    int      `json:"keyword_count"`
	Base            int      `json:"base"`
	SkillsBonus     int      `json:"skills_bonus"`
	ExperienceBonus int      `json:"experience_bonus"`
	Total           int      `json:"total"`
}

// Score returns the 0-100 fitness score for in.
func Score(in Input) int {
	return Explain(in).Total
}

// Explain computes the score and the parts it is made of.
func Explain(in Input) Breakdown {
	var b Breakdown

	if family := FamilyFor(in.Position); family != nil {
		b.Family = family.Name
		b.KeywordCount = len(family.Keywords)
		b.MatchedKeywords = matchKeywords(searchText(in), family.Keywords)
		if b.KeywordCount > 0 {
			b.Base = int(math.Round(100 * float64(len(b.MatchedKeywords)) / float64(b.KeywordCount)))
		}
	}
	if b.MatchedKeywords == nil {
		b.MatchedKeywords = []string{}
	}

	b.SkillsBonus = min(len(in.Skills)*skillPoints, maxSkillsBonus)
	b.ExperienceBonus = max(min(in.YearsExperience*experiencePoints, maxExperienceBonus), 0)
	b.Total = max(min(b.Base+b.SkillsBonus+b.ExperienceBonus, MaxScore), 0)

	return b
}

// ShouldRecompute reports whether the stored score of prev is stale for next.
// Only the résumé text, the skills and the position feed the keyword match.
func ShouldRecompute(prev, next Input) bool {
	return prev.ResumeText != next.ResumeText ||
		prev.Position != next.Position ||
		!slices.Equal(prev.Skills, next.Skills)
}

// Apply returns the score to persist for next. A nil prev means the candidate
// is new and is always scored; otherwise prevScore is kept unless
// ShouldRecompute says the inputs changed.
func Apply(prev *Input, prevScore int, next Input) int {
	if prev == nil || ShouldRecompute(*prev, next) {
		return Score(next)
	}
	return prevScore
}

func searchText(in Input) string {
	skills := make([]string, len(in.Skills))
	for i, s := range in.Skills {
		skills[i] = strings.ToLower(s)
	}
	return strings.ToLower(in.ResumeText) + " " + strings.Join(skills, " ")
}

func matchKeywords(text string, keywords []string) []string {
	matched := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if strings.Contains(text, k) {
			matched = append(matched, k)
		}
	}
	return matched
}
