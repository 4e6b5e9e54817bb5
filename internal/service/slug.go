package service

import "strings"

// Slugify lowercases name and joins its whitespace-separated words with "-".
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
