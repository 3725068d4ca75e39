// Package intent classifies chat messages as reservation-seeking and
// resolves them to a single catalog title. The rule-based implementations
// here sit behind small interfaces so a real NLU component can replace them
// without touching the dialogue state machine.
package intent

import (
	"regexp"
	"strings"

	"github.com/ublc/libchat/core"
)

// Classifier decides whether a message expresses reservation intent.
type Classifier interface {
	HasReservationIntent(message string) bool
}

// Resolver maps a message to exactly one catalog title, or reports failure
// so the dialogue can ask the user to name a book instead of guessing.
type Resolver interface {
	ResolveTitle(message string, catalog []core.Book) (string, bool)
}

// reservationKeywords is the fixed keyword set; any case-insensitive
// containment match is sufficient. Negations ("don't reserve") are not
// handled, a known limitation of the keyword approach.
var reservationKeywords = []string{
	"reserve",
	"borrow",
	"check out",
	"book me",
	"i want to reserve",
	"can i get",
	"i need",
	"get me",
}

// KeywordClassifier implements Classifier with substring matching against a
// fixed keyword set.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier returns a classifier with the default keyword set.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: reservationKeywords}
}

// HasReservationIntent reports whether any keyword occurs in the message.
func (c *KeywordClassifier) HasReservationIntent(message string) bool {
	msg := strings.ToLower(message)
	for _, kw := range c.keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// aliasRule maps colloquial phrasings to a canonical title.
type aliasRule struct {
	patterns []string
	title    string
}

var defaultAliases = []aliasRule{
	{patterns: []string{"programming in c", "programming c"}, title: "Programming in C"},
	{patterns: []string{"data structure", "algorithms"}, title: "Data Structures and Algorithms"},
	{patterns: []string{"python"}, title: "Python Programming"},
	{patterns: []string{"software engineering"}, title: "Software Engineering"},
	{patterns: []string{"database"}, title: "Introduction to Database Systems"},
}

var reservePhraseRe = regexp.MustCompile(`(?i)reserve\s+(.+)`)

// CatalogResolver implements Resolver with three passes: direct catalog
// substring match, hard-coded aliases, then the phrase following "reserve"
// tested for bidirectional overlap with each title.
type CatalogResolver struct {
	aliases []aliasRule
}

// NewCatalogResolver returns a resolver with the default alias table.
func NewCatalogResolver() *CatalogResolver {
	return &CatalogResolver{aliases: defaultAliases}
}

// ResolveTitle attempts to pin the message to one catalog title. The first
// catalog-order match wins; there is no ranking by length or specificity.
func (r *CatalogResolver) ResolveTitle(message string, catalog []core.Book) (string, bool) {
	msg := strings.ToLower(message)

	for _, b := range catalog {
		if b.Title != "" && strings.Contains(msg, strings.ToLower(b.Title)) {
			return b.Title, true
		}
	}

	for _, rule := range r.aliases {
		for _, p := range rule.patterns {
			if strings.Contains(msg, p) {
				return rule.title, true
			}
		}
	}

	if m := reservePhraseRe.FindStringSubmatch(message); m != nil {
		phrase := strings.ToLower(strings.TrimSpace(m[1]))
		for _, b := range catalog {
			title := strings.ToLower(b.Title)
			if title == "" {
				continue
			}
			if strings.Contains(phrase, title) || strings.Contains(title, phrase) {
				return b.Title, true
			}
		}
	}

	return "", false
}

// studentLineRe matches the free-text identity format the assistant asks
// for: "ID, Full Name, Email".
var studentLineRe = regexp.MustCompile(`(\d+),\s*(.*?),\s*([\w.-]+@[\w.-]+\.\w+)`)

// ParseStudentInfo extracts a student identity from a free-text message in
// "ID, Full Name, Email" form. Used while the dialogue is collecting info
// and the caller did not supply structured fields.
func ParseStudentInfo(message string) (core.StudentInfo, bool) {
	m := studentLineRe.FindStringSubmatch(message)
	if m == nil {
		return core.StudentInfo{}, false
	}
	return core.StudentInfo{StudentID: m[1], Name: strings.TrimSpace(m[2]), Email: m[3]}, true
}
