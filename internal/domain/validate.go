package domain

import "strings"

const (
	MinTitleLen   = 2
	MaxTitleLen   = 255
	MaxContentLen = 50000
	MaxCommentLen = 2000
)

// ValidatePost проверяет поля поста перед записью. Обе реализации
// хранилища вызывают ее, чтобы правила не расходились.
func ValidatePost(title, content string) error {
	title = strings.TrimSpace(title)
	if len(title) < MinTitleLen {
		return ValidationError("post title is too short")
	}
	if len(title) > MaxTitleLen {
		return ValidationError("post title is too long")
	}
	if strings.TrimSpace(content) == "" {
		return ValidationError("post content cannot be empty")
	}
	if len(content) > MaxContentLen {
		return ValidationError("post content is too long")
	}
	return nil
}

// ValidateCommentContent проверяет текст комментария.
func ValidateCommentContent(content string) error {
	if len(content) > MaxCommentLen {
		return ValidationError("comment content is too long")
	}
	if strings.TrimSpace(content) == "" {
		return ValidationError("comment content cannot be empty")
	}
	return nil
}
