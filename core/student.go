package core

import "strings"

// StudentInfo identifies the student a reservation is made for. It is
// supplied in-band alongside a chat message or parsed from free text while
// the dialogue is collecting info. Values are stored verbatim; no
// normalization is applied beyond what the caller provided.
type StudentInfo struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// Complete reports whether all three required fields are non-empty.
func (s StudentInfo) Complete() bool {
	return s.StudentID != "" && s.Name != "" && s.Email != ""
}

// ValidEmail reports whether Email is syntactically plausible: it must
// contain an '@' with a '.' somewhere after it.
func (s StudentInfo) ValidEmail() bool {
	at := strings.Index(s.Email, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(s.Email[at:], ".")
}
