package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ppa-crm/internal/access"
)

// scopeClause renders a visibility scope as a WHERE fragment on column,
// appending its parameters to args. Unknown shapes render as FALSE.
func scopeClause(scope access.Scope, column string, args *[]any) string {
	switch scope.Kind() {
	case access.ScopeAll:
		return "TRUE"
	case access.ScopeAssignees:
		*args = append(*args, scope.Assignees())
		return fmt.Sprintf("%s = ANY($%d)", column, len(*args))
	}
	return "FALSE"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchClause matches term as a case-insensitive substring of any of columns.
// Wildcards in term are matched literally.
func searchClause(term string, args *[]any, columns ...string) string {
	*args = append(*args, "%"+likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term)))+"%")
	p := fmt.Sprintf("$%d", len(*args))
	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, column, p)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func normalizePage(limit, offset, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
