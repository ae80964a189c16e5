package service

import (
	"strings"
	"time"

	"github.com/gfdmit/blog-service/internal/repository"
)

const dateLayout = "2006-01-02"

// PostQuery holds the list filters as they arrive on the query string.
type PostQuery struct {
	Title           string `form:"title"`
	AuthorName      string `form:"author_name"`
	PublishedAfter  string `form:"published_date_after"`
	PublishedBefore string `form:"published_date_before"`
}

func (q PostQuery) filter(base repository.PostFilter) (repository.PostFilter, error) {
	f := base
	f.Title = strings.TrimSpace(q.Title)
	f.AuthorName = strings.TrimSpace(q.AuthorName)

	if q.PublishedAfter != "" {
		after, err := parseBound(q.PublishedAfter, false)
		if err != nil {
			return repository.PostFilter{}, err
		}
		f.PublishedAfter = &after
	}
	if q.PublishedBefore != "" {
		before, err := parseBound(q.PublishedBefore, true)
		if err != nil {
			return repository.PostFilter{}, err
		}
		f.PublishedBefore = &before
	}
	return f, nil
}

// parseBound accepts a calendar date, which covers the whole UTC day, or an
// RFC 3339 timestamp.
func parseBound(value string, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, err := time.Parse(dateLayout, value); err == nil {
		if upper {
			return day.Add(24*time.Hour - time.Microsecond), nil
		}
		return day, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fieldError("published_date", MsgInvalidDate)
}
