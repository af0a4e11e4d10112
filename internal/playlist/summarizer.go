package playlist

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Long transcripts are truncated before prompting; anything past this adds
// cost without changing the summary much.
const maxTranscriptChars = 15000

// chatClient is the slice of the llm client the summarizer needs.
type chatClient interface {
	SimpleChat(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Summarizer turns a transcript into a structured summary written in the
// configured target language.
type Summarizer struct {
	client chatClient
	target language.Tag
}

func NewSummarizer(client chatClient, target language.Tag) *Summarizer {
	return &Summarizer{client: client, target: target}
}

// Summarize produces a summary with key points, a synthesis paragraph,
// takeaways and keywords.
func (s *Summarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("summarize: transcript is empty")
	}
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	langName := display.English.Languages().Name(s.target)
	var b strings.Builder
	b.WriteString("Here is the transcript of a YouTube video")
	if title != "" {
		fmt.Fprintf(&b, " titled %q", title)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Write a structured, useful summary of this video in %s, with these sections:\n\n", langName)
	b.WriteString("## Key points\n- The 3 to 5 main ideas of the video\n\n")
	b.WriteString("## Summary\nA 100-150 word synthesis paragraph that captures the essence of the video.\n\n")
	b.WriteString("## Takeaways\n- 2-3 essential points or concrete actions to remember\n\n")
	b.WriteString("## Keywords\n5-7 relevant keywords to find this summary again.\n\n")
	b.WriteString("---\n\nTranscript:\n")
	b.WriteString(transcript)

	system := "You are an assistant specialized in summarizing YouTube videos."
	summary, err := s.client.SimpleChat(ctx, b.String(), system)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return summary, nil
}
