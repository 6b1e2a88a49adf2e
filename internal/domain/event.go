package domain

const (
	EventNameQuizConverted = "quiz.converted"
)

// EventQuizConverted is published after a conversion that was not served from cache.
type EventQuizConverted struct {
	Catalog *Catalog
	Format  string
}

func (EventQuizConverted) Name() string { return EventNameQuizConverted }
