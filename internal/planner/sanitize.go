package planner

import "strings"

// SanitizeResponse extracts the JSON object from raw model output by dropping
// markdown fences and slicing from the first '{' to the last '}'.
// If the output holds several objects the slice spans all of them.
func SanitizeResponse(raw string) (string, error) {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return clean[start : end+1], nil
}
