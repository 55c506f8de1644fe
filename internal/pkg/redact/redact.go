// redact прячет чувствительные значения перед записью в логи.
// Логи не должны содержать e-mail целиком, пароли и токены ни в каком виде.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен:
// "foobar@example.com" -> "fo***@example.com". Всё, что не похоже
// на адрес, сводится к "***".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	runes := []rune(local)
	if len(runes) > 2 {
		local = string(runes[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
