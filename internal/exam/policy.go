package exam

import "strings"

// GabaritoOption controls where (and whether) answers appear in an exam.
type GabaritoOption int

const (
	OnlyQuestions GabaritoOption = iota + 1
	OnlyAnswerKey
	OnlyAnswerKeyFull
	AfterEachQuestion
	FinalSection
)

var gabaritoTokens = map[string]GabaritoOption{
	"only_questions":                   OnlyQuestions,
	"somente_questoes":                 OnlyQuestions,
	"only_answer_key":                  OnlyAnswerKey,
	"somente_gabarito":                 OnlyAnswerKey,
	"only_answer_key_full":             OnlyAnswerKeyFull,
	"somente_gabarito_com_expectativa": OnlyAnswerKeyFull,
	"after_each_question":              AfterEachQuestion,
	"apos_cada_questao":                AfterEachQuestion,
	"final_section":                    FinalSection,
	"final_arquivo":                    FinalSection,
}

// ParseGabaritoOption accepts both the English and the legacy Portuguese tokens.
func ParseGabaritoOption(s string) (GabaritoOption, bool) {
	o, ok := gabaritoTokens[strings.ToLower(strings.TrimSpace(s))]
	return o, ok
}

func (o GabaritoOption) String() string {
	switch o {
	case OnlyQuestions:
		return "only_questions"
	case OnlyAnswerKey:
		return "only_answer_key"
	case OnlyAnswerKeyFull:
		return "only_answer_key_full"
	case AfterEachQuestion:
		return "after_each_question"
	case FinalSection:
		return "final_section"
	}
	return "unknown"
}

// OptionFromLegacy maps the pre-enum include_gabarito flag.
func OptionFromLegacy(includeGabarito bool) GabaritoOption {
	if !includeGabarito {
		return OnlyQuestions
	}
	return FinalSection
}

// Policy is a resolved placement option plus its answer-source preference.
type Policy struct {
	Option          GabaritoOption
	IncludeAnswers  bool
	PreferAnswerKey bool
}

// ResolvePolicy turns request parameters into a Policy. An explicit option
// wins over the legacy flags; an unknown option falls back to FinalSection.
func ResolvePolicy(option string, includeGabarito, useRespostaGabarito bool) Policy {
	if strings.TrimSpace(option) == "" {
		return Policy{
			Option:          OptionFromLegacy(includeGabarito),
			IncludeAnswers:  includeGabarito,
			PreferAnswerKey: useRespostaGabarito,
		}
	}

	o, ok := ParseGabaritoOption(option)
	if !ok {
		return Policy{Option: FinalSection, IncludeAnswers: includeGabarito, PreferAnswerKey: useRespostaGabarito}
	}
	switch o {
	case OnlyQuestions:
		return Policy{Option: o}
	case OnlyAnswerKey:
		return Policy{Option: o, IncludeAnswers: true, PreferAnswerKey: true}
	case OnlyAnswerKeyFull:
		return Policy{Option: o, IncludeAnswers: true}
	default:
		return Policy{Option: o, IncludeAnswers: true, PreferAnswerKey: useRespostaGabarito}
	}
}

// HasAnswers reports whether the resolved exam carries any answer content.
func (p Policy) HasAnswers() bool {
	switch p.Option {
	case OnlyQuestions:
		return false
	case FinalSection:
		return p.IncludeAnswers
	}
	return true
}

// DefaultBaseName is the file stem used when no test name is requested.
func (p Policy) DefaultBaseName() string {
	if p.HasAnswers() {
		return "prova_com_gabarito"
	}
	return "prova"
}
