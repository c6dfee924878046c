package validation

import "strconv"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit well inside the OFFSET range
	MaxPage = 1_000_000
)

// ValidatePaging parses page-numbered listing parameters.
// Empty values fall back to page 1 and DefaultPageLimit.
func ValidatePaging(pageParam, limitParam string) (page, limit int, res Result) {
	var c collector
	page, limit = 1, DefaultPageLimit

	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		switch {
		case err != nil || n < 1:
			c.add("page", "Page must be a positive integer")
		case n > MaxPage:
			c.add("page", "Page must be between 1 and 1000000")
		default:
			page = n
		}
	}

	if limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 || n > MaxPageLimit {
			c.add("limit", "Limit must be between 1 and 100")
		} else {
			limit = n
		}
	}

	return page, limit, c.result()
}

// ValidateOffsetLimit parses offset/limit listing parameters; empty values yield nil
func ValidateOffsetLimit(limitParam, offsetParam string) (limit, offset *int, res Result) {
	var c collector

	if limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 || n > MaxPageLimit {
			c.add("limit", "Limit must be between 1 and 100")
		} else {
			limit = &n
		}
	}

	if offsetParam != "" {
		n, err := strconv.Atoi(offsetParam)
		if err != nil || n < 0 {
			c.add("offset", "Offset must be a non-negative integer")
		} else {
			offset = &n
		}
	}

	return limit, offset, c.result()
}
