package repository

import (
	"sort"
	"time"

	"github.com/societyresolver/complaint-service/internal/docstore"
)

// Collection names shared by every backend.
const (
	UsersCollection            = "users"
	ComplaintsCollection       = "complaints"
	ComplaintHistoryCollection = "complaint_history"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts the RFC 3339 strings we write and the time.Time values
// the Mongo driver hands back for dates written by other tools.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolOrNil(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

// sortByCreated orders documents oldest first. Ties keep the backend's
// insertion order.
func sortByCreated(docs []docstore.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return parseTime(docs[i].Fields["created_at"]).Before(parseTime(docs[j].Fields["created_at"]))
	})
}
