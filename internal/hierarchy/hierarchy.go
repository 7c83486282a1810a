// Package hierarchy derives coarse role levels from HR directory records.
package hierarchy

import "strings"

type Level string

const (
	LevelPresidente  Level = "presidente"
	LevelDiretoria   Level = "diretoria"
	LevelChefe       Level = "chefe"
	LevelColaborador Level = "colaborador"
)

// CapabilityAllSectors is the named grant that lets a user list activities
// across every sector. It is checked separately from the hierarchy level so
// new capabilities can be added without touching the classifier.
const CapabilityAllSectors = "ver todos os setores"

// Record carries the directory fields the classifier reads. The four
// sector-ish fields are treated as synonyms by Sector.
type Record struct {
	JobTitle   string
	Department string
	Division   string
	Advisory   string
	Section    string
}

// Classify maps a directory record to a hierarchy level based on its job
// title. Levels are recomputed on every request, never stored.
func Classify(r Record) Level {
	title := strings.ToLower(r.JobTitle)
	switch {
	case strings.Contains(title, "presidente"):
		return LevelPresidente
	case strings.Contains(title, "diretor"):
		return LevelDiretoria
	case strings.Contains(title, "chefe"):
		return LevelChefe
	default:
		return LevelColaborador
	}
}

func IsAdmin(level Level) bool {
	return level == LevelPresidente || level == LevelDiretoria
}

func IsChefe(level Level) bool {
	return level == LevelChefe || IsAdmin(level)
}

// Sector resolves a record's sector code. The upstream HR feed spreads the
// sector across four fields; precedence is department, division, advisory,
// then section, first non-empty wins.
func Sector(r Record) string {
	for _, value := range []string{r.Department, r.Division, r.Advisory, r.Section} {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
