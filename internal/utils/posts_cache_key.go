package utils

import (
	"strconv"
	"strings"
)

func BuildPostsListCacheKey(generation int64, page, limit int, categoryID *string) string {
	c := ""
	if categoryID != nil {
		c = strings.ToLower(strings.TrimSpace(*categoryID))
	}

	return "posts:list:v1:gen=" + strconv.FormatInt(generation, 10) +
		":page=" + strconv.Itoa(page) +
		":limit=" + strconv.Itoa(limit) +
		":category=" + c
}

func BuildCategoriesListCacheKey(generation int64) string {
	return "categories:list:v1:gen=" + strconv.FormatInt(generation, 10)
}
