// Package scoring computes the CV fitness score of a candidate against the
// position they applied for.
package scoring

import "strings"

// Family is a role family: a position matches the family when its lowercased
// text contains any of the Match substrings.
type Family struct {
	Name     string
	Match    []string
	Keywords []string
}

// Families is evaluated in order and the first matching family wins.
// "Senior Developer Engineer" therefore scores against the developer keywords.
var Families = []Family{
	{
		Name:  "developer",
		Match: []string{"developer"},
		Keywords: []string{
			"javascript", "react", "node.js", "python", "java",
			"sql", "git", "api", "html", "css",
		},
	},
	{
		Name:  "engineer",
		Match: []string{"engineer"},
		Keywords: []string{
			"python", "java", "c++", "docker", "kubernetes",
			"aws", "linux", "algorithms", "system design", "ci/cd",
		},
	},
	{
		Name:  "designer",
		Match: []string{"designer"},
		Keywords: []string{
			"figma", "sketch", "adobe", "photoshop", "illustrator",
			"ui", "ux", "prototyping", "wireframe", "user research",
		},
	},
	{
		Name:  "marketing",
		Match: []string{"marketing"},
		Keywords: []string{
			"seo", "sem", "google analytics", "content", "social media",
			"campaign", "branding", "email marketing", "copywriting", "crm",
		},
	},
	{
		Name:  "sales",
		Match: []string{"sales"},
		Keywords: []string{
			"negotiation", "crm", "lead generation", "b2b", "pipeline",
			"closing", "prospecting", "salesforce", "account management", "cold calling",
		},
	},
	{
		Name:  "hr",
		Match: []string{"hr"},
		Keywords: []string{
			"recruitment", "onboarding", "payroll", "employee relations", "hris",
			"talent acquisition", "performance management", "compliance", "training", "benefits",
		},
	},
}

// FamilyFor returns the first family whose match substrings occur in the
// position, or nil when none does.
func FamilyFor(position string) *Family {
	p := strings.ToLower(position)
	for i := range Families {
		for _, m := range Families[i].Match {
			if strings.Contains(p, m) {
				return &Families[i]
			}
		}
	}
	return nil
}
