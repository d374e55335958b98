package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// DefaultThreshold reports words seen more than twice.
const DefaultThreshold = 2

// NoRepeatsMessage is printed when nothing crosses the threshold.
const NoRepeatsMessage = "No words were repeated more than twice across all translated headers."

// Combining marks stay inside the word so decomposed accents do not split it.
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Tokenize lowercases text and returns its word runs.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// WordCount is one tallied word.
type WordCount struct {
	Word  string
	Count int
}

// Tally counts words and remembers the order they were first seen in.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: map[string]int{}}
}

// Add counts every word of text.
func (t *Tally) Add(text string) {
	for _, w := range Tokenize(text) {
		if _, ok := t.counts[w]; !ok {
			t.order = append(t.order, w)
		}
		t.counts[w]++
	}
}

// Count returns how often word was seen; word is matched lowercased.
func (t *Tally) Count(word string) int {
	return t.counts[strings.ToLower(word)]
}

// Repeated returns the words whose count is strictly greater than threshold, in first-seen order.
func (t *Tally) Repeated(threshold int) []WordCount {
	var out []WordCount
	for _, w := range t.order {
		if c := t.counts[w]; c > threshold {
			out = append(out, WordCount{Word: w, Count: c})
		}
	}
	return out
}

// Analyze tallies every title and returns the repeated words.
func Analyze(titles []string, threshold int) []WordCount {
	tally := NewTally()
	for _, title := range titles {
		tally.Add(title)
	}
	return tally.Repeated(threshold)
}

// Render writes the consolidated title list followed by the frequency table.
func Render(w io.Writer, titles []string, repeated []WordCount) error {
	if _, err := fmt.Fprintf(w, "\n--- Consolidated Analysis of All Translated Titles (%d) ---\n", len(titles)); err != nil {
		return err
	}
	for i, title := range titles {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, title); err != nil {
			return err
		}
	}

	if len(repeated) == 0 {
		_, err := fmt.Fprintln(w, NoRepeatsMessage)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Words repeated more than twice")
	t.AppendHeader(table.Row{"Word", "Count"})
	for _, wc := range repeated {
		t.AppendRow(table.Row{wc.Word, wc.Count})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
