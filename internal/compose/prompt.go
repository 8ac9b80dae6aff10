package compose

import (
	"fmt"
	"strings"
)

// Language holds the fixed wording sent to the generation capability.
type Language struct {
	Code              string
	SystemInstruction string
	OrganizationLabel string
	AgendaLabel       string
	TranscriptLabel   string
}

const systemInstructionEN = `You are an expert at writing meeting minutes for local government bodies.

From the transcript provided, produce a professional, structured meeting report with:

## 1. GENERAL INFORMATION
- Date and time (if mentioned)
- Participants present

## 2. AGENDA
List of the items discussed

## 3. DISCUSSIONS
For each agenda item:
- Summary of the discussion
- Positions expressed
- Main arguments

## 4. DECISIONS
Clear list of the decisions voted or approved with:
- The decision
- Vote (if mentioned: for/against/abstention)

## 5. ACTION ITEMS
For each action:
- Description of the action
- Owner (if mentioned)
- Deadline (if mentioned)

## 6. NEXT MEETING
Date and planned topics (if mentioned)

Rules:
- Use clear, professional English
- Be concise but complete
- Use bullet lists for readability
- If a piece of information is not in the transcript, write "Not specified"
- Format: Markdown with clear headings (##, ###)`

const systemInstructionFR = `Tu es un expert en rédaction de comptes rendus de réunion pour collectivités territoriales françaises.

À partir de la transcription fournie, génère un compte rendu professionnel et structuré avec:

## 1. INFORMATIONS GÉNÉRALES
- Date et heure (si mentionnées)
- Participants présents

## 2. ORDRE DU JOUR
Liste des points discutés

## 3. DISCUSSIONS ET DÉBATS
Pour chaque point à l'ordre du jour:
- Résumé des discussions
- Positions exprimées
- Arguments principaux

## 4. DÉCISIONS PRISES
Liste claire des décisions votées ou approuvées avec:
- La décision
- Vote (si mentionné: pour/contre/abstention)

## 5. ACTIONS À RÉALISER
Pour chaque action:
- Description de l'action
- Responsable (si mentionné)
- Échéance (si mentionnée)

## 6. PROCHAINE RÉUNION
Date et sujets prévus (si mentionnés)

Consignes:
- Utilise un français professionnel et clair
- Sois concis mais complet
- Utilise des listes à puces pour la lisibilité
- Si une information n'est pas dans la transcription, note "Non précisé"
- Format: Markdown avec titres clairs (##, ###)`

var languages = map[string]Language{
	"en": {
		Code:              "en",
		SystemInstruction: systemInstructionEN,
		OrganizationLabel: "Organization",
		AgendaLabel:       "Planned agenda items",
		TranscriptLabel:   "Meeting transcript",
	},
	"fr": {
		Code:              "fr",
		SystemInstruction: systemInstructionFR,
		OrganizationLabel: "Municipalité",
		AgendaLabel:       "Sujets prévus à l'ordre du jour",
		TranscriptLabel:   "Transcription de la réunion",
	},
}

// LanguageFor returns the wording for a language code, defaulting to English.
func LanguageFor(code string) Language {
	if l, ok := languages[strings.ToLower(code)]; ok {
		return l
	}
	return languages["en"]
}

// BuildUserMessage embeds the meeting context and transcript into the single
// user turn sent alongside the system instruction.
func BuildUserMessage(lang Language, transcript, organization, agenda string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", lang.OrganizationLabel, organization))
	if agenda = strings.TrimSpace(agenda); agenda != "" {
		sb.WriteString(fmt.Sprintf("\n\n%s: %s", lang.AgendaLabel, agenda))
	}
	sb.WriteString(fmt.Sprintf("\n\n%s:\n\n", lang.TranscriptLabel))
	sb.WriteString(transcript)
	return sb.String()
}
