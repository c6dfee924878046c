package validation

// ValidateRegister checks a registration payload and decodes it into dst
func ValidateRegister(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "name", nameRequired)
		c.requireString(obj, "email", emailRequired)
		c.requireString(obj, "password", passwordRequired)
		c.requireString(obj, "confirmPassword", confirmPasswordRequired)
		c.requireInteger(obj, "age", ageNotInteger)
		c.requireString(obj, "phone", phoneNotString)
	})
}

// ValidateLogin checks login credentials
func ValidateLogin(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "email", emailRequired)
		c.requireString(obj, "password", passwordRequired)
	})
}

// ValidatePasswordResetRequest checks a forgot-password payload
func ValidatePasswordResetRequest(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "email", emailRequired)
	})
}

// ValidatePasswordResetConfirm checks a reset-password payload
func ValidatePasswordResetConfirm(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "token", resetTokenRequired)
		c.requireString(obj, "password", passwordRequired)
		c.requireString(obj, "confirmPassword", confirmPasswordRequired)
	})
}

// ValidatePasswordChange checks a change-password payload
func ValidatePasswordChange(data, dst any) Result {
	return bind(data, dst, func(obj map[string]any, c *collector) {
		c.requireString(obj, "currentPassword", currentPasswordRequired)
		c.requireString(obj, "newPassword", newPasswordRequired)
		c.requireString(obj, "confirmPassword", confirmPasswordRequired)
	})
}
