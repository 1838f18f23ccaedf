package domain

import (
	"strings"
	"time"
)

// Допустимые переходы статуса поста:
// draft -> published | scheduled, scheduled -> published,
// published <-> archived. Обратных переходов нет, остальное запрещено.
var statusTransitions = map[PostStatus][]PostStatus{
	StatusDraft:     {StatusPublished, StatusScheduled},
	StatusScheduled: {StatusPublished},
	StatusPublished: {StatusArchived},
	StatusArchived:  {StatusPublished},
}

// CanTransition проверяет, разрешен ли переход статуса.
func CanTransition(from, to PostStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus сообщает, известен ли статус вообще.
func IsValidStatus(s PostStatus) bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ApplyStatusChange переводит пост в новый статус и поддерживает инвариант
// PublishedAt: метка ставится при ПЕРВОЙ публикации и дальше не меняется,
// архивация и повторная публикация ее не трогают.
func (p *Post) ApplyStatusChange(to PostStatus, scheduledAt *time.Time, now time.Time) error {
	if !IsValidStatus(to) {
		return ValidationError("unknown post status %q", to)
	}
	if p.Status == to {
		return nil
	}
	if !CanTransition(p.Status, to) {
		return ValidationError("cannot transition post from %q to %q", p.Status, to)
	}
	switch to {
	case StatusScheduled:
		if scheduledAt == nil {
			return ValidationError("scheduled post requires scheduledAt")
		}
		if !scheduledAt.After(now) {
			return ValidationError("scheduledAt must be in the future")
		}
		p.ScheduledAt = scheduledAt
	case StatusPublished:
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
		p.ScheduledAt = nil
	}
	p.Status = to
	return nil
}

// Slugify приводит заголовок к url-безопасному слагу.
func Slugify(s string) string {
	var b strings.Builder
	prevDash := true // не начинаем с дефиса
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
