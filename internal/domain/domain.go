package domain

import (
	"slices"
	"time"
)

// AnswerCount is the number of answer slots of every question record.
const AnswerCount = 4

// Topic is a named category that questions belong to.
type Topic struct {
	ID   int    `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

type Answer struct {
	Text    string `json:"text" yaml:"text" toml:"text"`
	Correct bool   `json:"correct" yaml:"correct" toml:"correct"`
}

// Question is one decoded question record.
type Question struct {
	Number   int                 `json:"nr" yaml:"nr" toml:"nr"`
	Text     string              `json:"text" yaml:"text" toml:"text"`
	Points   int                 `json:"points" yaml:"points" toml:"points"`
	Category int                 `json:"category" yaml:"category" toml:"category"`
	Followup int                 `json:"followup" yaml:"followup" toml:"followup"`
	Answers  [AnswerCount]Answer `json:"answer" yaml:"answer" toml:"answer"`
}

// TopicTable keeps topics in file order. Duplicate ids coexist; lookups
// return the first match.
type TopicTable struct {
	topics []Topic
}

func NewTopicTable() *TopicTable {
	return &TopicTable{}
}

func (t *TopicTable) Add(id int, name string) {
	t.topics = append(t.topics, Topic{ID: id, Name: name})
}

// Name returns the name of the first topic with the given id.
func (t *TopicTable) Name(id int) (string, bool) {
	for _, tp := range t.topics {
		if tp.ID == id {
			return tp.Name, true
		}
	}
	return "", false
}

func (t *TopicTable) Len() int {
	return len(t.topics)
}

// Topics returns a copy of the entries in insertion order.
func (t *TopicTable) Topics() []Topic {
	return slices.Clone(t.topics)
}

// QuestionCollection keeps decoded questions in file order until sorted.
type QuestionCollection struct {
	questions []Question
}

func NewQuestionCollection() *QuestionCollection {
	return &QuestionCollection{}
}

func (c *QuestionCollection) Append(q Question) {
	c.questions = append(c.questions, q)
}

func (c *QuestionCollection) Len() int {
	return len(c.questions)
}

// Questions returns a copy of the questions in their current order.
func (c *QuestionCollection) Questions() []Question {
	return slices.Clone(c.questions)
}

// SortByNumber orders questions by number. Equal numbers keep their relative order.
func (c *QuestionCollection) SortByNumber() {
	slices.SortStableFunc(c.questions, func(a, b Question) int {
		return a.Number - b.Number
	})
}

// Catalog is the result of one conversion run.
type Catalog struct {
	CatalogID    string
	TopicFile    string
	QuestionFile string
	Topics       *TopicTable
	Questions    *QuestionCollection
	CreateTime   time.Time
}

// CatalogSummary is the listing view of a stored catalog.
type CatalogSummary struct {
	CatalogID     string    `json:"catalog_id"`
	TopicFile     string    `json:"topic_file"`
	QuestionFile  string    `json:"question_file"`
	TopicCount    int       `json:"topic_count"`
	QuestionCount int       `json:"question_count"`
	CreateTime    time.Time `json:"create_time"`
}

func (c *Catalog) Summary() CatalogSummary {
	return CatalogSummary{
		CatalogID:     c.CatalogID,
		TopicFile:     c.TopicFile,
		QuestionFile:  c.QuestionFile,
		TopicCount:    c.Topics.Len(),
		QuestionCount: c.Questions.Len(),
		CreateTime:    c.CreateTime,
	}
}
