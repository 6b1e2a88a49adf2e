// Package stats summarizes a decoded catalog.
package stats

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/victornm/quizconv/internal/domain"
	"github.com/victornm/quizconv/internal/sanitize"
)

const places = 2

// Topic holds the figures of the questions filed under one category id.
type Topic struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Known          bool            `json:"known"`
	Questions      int             `json:"questions"`
	CorrectAnswers int             `json:"correct_answers"`
	TotalPoints    decimal.Decimal `json:"total_points"`
	AveragePoints  decimal.Decimal `json:"average_points"`
}

type Summary struct {
	Topics         int             `json:"topics"`
	Questions      int             `json:"questions"`
	CorrectAnswers int             `json:"correct_answers"`
	Followups      int             `json:"followups"`
	TotalPoints    decimal.Decimal `json:"total_points"`
	AveragePoints  decimal.Decimal `json:"average_points"`
	ByTopic        []Topic         `json:"by_topic"`
}

// Compute walks the questions once. Topics appear in the order their first
// question does. topics may be nil, every category is then unknown.
func Compute(topics *domain.TopicTable, questions *domain.QuestionCollection) Summary {
	var s Summary
	if topics != nil {
		s.Topics = topics.Len()
	}

	index := make(map[int]int)
	for _, q := range questions.Questions() {
		i, ok := index[q.Category]
		if !ok {
			t := Topic{ID: q.Category}
			if topics != nil {
				t.Name, t.Known = topics.Name(q.Category)
			}
			i = len(s.ByTopic)
			index[q.Category] = i
			s.ByTopic = append(s.ByTopic, t)
		}

		correct := countCorrect(q)
		points := decimal.NewFromInt(int64(q.Points))

		t := &s.ByTopic[i]
		t.Questions++
		t.CorrectAnswers += correct
		t.TotalPoints = t.TotalPoints.Add(points)

		s.Questions++
		s.CorrectAnswers += correct
		s.TotalPoints = s.TotalPoints.Add(points)
		if q.Followup != 0 {
			s.Followups++
		}
	}

	s.AveragePoints = average(s.TotalPoints, s.Questions)
	for i := range s.ByTopic {
		s.ByTopic[i].AveragePoints = average(s.ByTopic[i].TotalPoints, s.ByTopic[i].Questions)
	}
	return s
}

func countCorrect(q domain.Question) int {
	n := 0
	for _, a := range q.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(n)), places)
}

// Write prints s as an aligned table.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "topics\t%d\n", s.Topics)
	fmt.Fprintf(tw, "questions\t%d\n", s.Questions)
	fmt.Fprintf(tw, "correct answers\t%d\n", s.CorrectAnswers)
	fmt.Fprintf(tw, "followups\t%d\n", s.Followups)
	fmt.Fprintf(tw, "points\t%s (avg %s)\n", s.TotalPoints.StringFixed(places), s.AveragePoints.StringFixed(places))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ID\tTOPIC\tQUESTIONS\tCORRECT\tPOINTS\tAVG")
	for _, t := range s.ByTopic {
		name := sanitize.ToUTF8(t.Name)
		if !t.Known {
			name = "?"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			t.ID, name, t.Questions, t.CorrectAnswers,
			t.TotalPoints.StringFixed(places), t.AveragePoints.StringFixed(places))
	}
	return tw.Flush()
}
