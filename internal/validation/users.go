package validation

// ValidateCreateUser checks a user creation payload and decodes it into dst
func ValidateCreateUser(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "name", nameRequired)
		c.requireString(obj, "email", emailRequired)
		checkUserOptionals(obj, c)
	})
}

// ValidateUpdateUser checks a partial user update and decodes it into dst.
// At least one field is required.
func ValidateUpdateUser(data, dst any) Result {
	obj, ok := asObject(data)
	if !ok {
		return invalidBody()
	}

	_, hasName := truthyString(obj, "name")
	_, hasEmail := truthyString(obj, "email")
	if !hasName && !hasEmail && !present(obj, "age") && !present(obj, "phone") && !present(obj, "image_path") {
		return Result{Errors: []FieldError{{
			Field:   "body",
			Message: "At least one field (name, email, age, phone, or image_path) must be provided",
		}}}
	}

	return bind(obj, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "name", nameBlank)
		c.requireString(obj, "email", emailNotString)
		checkUserOptionals(obj, c)
	})
}

// ValidateUserID checks a path or query user id
func ValidateUserID(id string) Result {
	var c collector
	switch {
	case id == "":
		c.add("id", "User ID is required")
	case !digitsOnly.MatchString(id) || isAllZeros(id):
		c.add("id", "User ID must be a positive integer")
	}
	return c.result()
}

// ValidateSearchTerm checks a user or page search term
func ValidateSearchTerm(term string) Result {
	var c collector
	trimmed := trimSpace(term)
	switch {
	case trimmed == "":
		c.add("search", "Search term is required")
	case length(trimmed) < 2:
		c.add("search", "Search term must be at least 2 characters")
	}
	return c.result()
}

func checkUserOptionals(obj map[string]any, c *collector) {
	c.requireInteger(obj, "age", ageNotInteger)
	c.requireString(obj, "phone", phoneNotString)
	c.requireString(obj, "image_path", imagePathNotString)
}
