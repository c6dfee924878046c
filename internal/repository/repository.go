package repository

import (
	"strconv"
	"strings"

	"github.com/prperemyshlev/pages-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User  UserRepository
	Token TokenRepository
	Page  PageRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Token: NewTokenRepository(db),
		Page:  NewPageRepository(db),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term literally
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// setClause accumulates "column = $n" pairs for partial updates
type setClause struct {
	parts []string
	args  []any
}

func (s *setClause) add(column string, value any) {
	s.args = append(s.args, value)
	s.parts = append(s.parts, column+" = $"+strconv.Itoa(len(s.args)))
}

func (s *setClause) empty() bool {
	return len(s.parts) == 0
}

// next returns the placeholder for an argument appended after the SET values
func (s *setClause) next(value any) string {
	s.args = append(s.args, value)
	return "$" + strconv.Itoa(len(s.args))
}

func (s *setClause) String() string {
	return strings.Join(s.parts, ", ")
}
