package services

import (
	"strings"

	"flashnotes-backend/internal/models"
)

// AnkiExport renders flashcards as tab-separated text, one card per
// line, for import into Anki and similar tools. Literal tabs, newlines,
// and carriage returns inside a question or answer become single spaces
// so the line structure survives; that information loss is accepted.
func AnkiExport(cards []*models.Flashcard) string {
	lines := make([]string, 0, len(cards))
	for _, card := range cards {
		lines = append(lines, flattenField(card.Question)+"\t"+flattenField(card.Answer))
	}
	return strings.Join(lines, "\n")
}

func flattenField(s string) string {
	replacer := strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")
	return replacer.Replace(s)
}

// ExportFilename derives the download filename from the note title:
// every non-alphanumeric rune becomes an underscore.
func ExportFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_flashcards.txt"
}
