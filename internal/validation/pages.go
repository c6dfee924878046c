package validation

// ValidateCreatePage checks a page creation payload and decodes it into dst
func ValidateCreatePage(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "slug", slugRequired)
		c.requireString(obj, "title", titleRequired)
		// content may be empty but must be present
		if _, ok := obj["content"].(string); !ok {
			c.add("content", contentRequired)
		}
		checkPageOptionals(obj, c)
	})
}

// ValidateUpdatePage checks a partial page update; the slug is immutable
func ValidateUpdatePage(data, dst any) Result {
	obj, ok := asObject(data)
	if !ok {
		return invalidBody()
	}

	if !present(obj, "title") && !present(obj, "content") && !present(obj, "description") && !present(obj, "is_public") {
		return Result{Errors: []FieldError{{
			Field:   "body",
			Message: "At least one field (title, content, description, or is_public) must be provided",
		}}}
	}

	return bind(obj, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "title", titleBlank)
		c.requireString(obj, "content", contentNotString)
		checkPageOptionals(obj, c)
	})
}

func checkPageOptionals(obj map[string]any, c *collector) {
	// description may be null to clear it
	if v, ok := obj["description"]; ok && v != nil {
		if _, isString := v.(string); !isString {
			c.add("description", descriptionNotString)
		}
	}

	if v, ok := obj["is_public"]; ok {
		if _, isBool := v.(bool); !isBool {
			c.add("is_public", isPublicNotBool)
		}
	}
}
