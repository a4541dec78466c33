package analyzer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rcliao/paper-digest/internal/llm"
)

// foreignRatio is the share of ASCII letters above which a title is
// treated as foreign and translated.
const foreignRatio = 0.7

// IsForeignTitle reports whether more than 70% of the title's letters are
// ASCII. Titles without letters are not foreign.
func IsForeignTitle(title string) bool {
	var ascii, letters int
	for _, r := range title {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r <= unicode.MaxASCII {
			ascii++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(ascii)/float64(letters) > foreignRatio
}

func isEnglish(language string) bool {
	l := strings.ToLower(strings.TrimSpace(language))
	return l == "english" || l == "en"
}

func translationMessages(title, language string) []llm.Message {
	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf("You are a professional academic translator. Translate English paper titles into %s. "+
				"Keep technical terms accurate, write natural %s, and reply with the translation only.", language, language),
		},
		{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Translate this paper title into %s:\n%s", language, title),
		},
	}
}

func analysisMessages(title, authors, text, language string, fullText bool) []llm.Message {
	var prompt string
	if fullText {
		prompt = fmt.Sprintf(`Analyze the full text of the following academic paper and return a structured analysis.

Title: %s
Authors: %s

Full text:
%s

Answer in %s and return a JSON object with these fields:

1. abstract: a reorganized, polished abstract of the paper (200-300 characters)
2. innovation_points: the main innovations and contributions (3-5 points, 50-100 characters each)
3. summary: an overall summary and assessment of the paper (150-250 characters)

Return valid JSON only. Field names must be in English; the content must be in %s.
`, title, authors, text, language, language)
	} else {
		prompt = fmt.Sprintf(`Analyze the abstract of the following academic paper and return a structured analysis.

Title: %s
Authors: %s

Abstract:
%s

Answer in %s and return a JSON object with these fields:

1. abstract: a clearer rewrite of the abstract that keeps its meaning
2. innovation_points: the main innovations inferred from the abstract (2-3 points)
3. summary: an overall summary and assessment based on the abstract (100-150 characters)

Return valid JSON only. Field names must be in English; the content must be in %s.
`, title, authors, text, language, language)
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf("You are an expert reviewer of academic papers, skilled at extracting a paper's core content, "+
				"innovations and value. Answer in %s and follow the JSON format strictly.", language),
		},
		{Role: llm.RoleUser, Content: prompt},
	}
}
