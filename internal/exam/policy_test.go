package exam

import "testing"

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name    string
		option  string
		include bool
		useKey  bool
		want    Policy
	}{
		{"legacy without answers", "", false, false, Policy{Option: OnlyQuestions}},
		{"legacy with answers", "", true, false, Policy{Option: FinalSection, IncludeAnswers: true}},
		{"legacy with answer key", "", true, true, Policy{Option: FinalSection, IncludeAnswers: true, PreferAnswerKey: true}},
		{"only questions ignores flags", "somente_questoes", true, true, Policy{Option: OnlyQuestions}},
		{"only answer key forces key", "only_answer_key", false, false, Policy{Option: OnlyAnswerKey, IncludeAnswers: true, PreferAnswerKey: true}},
		{"full answers forces full", "somente_gabarito_com_expectativa", true, true, Policy{Option: OnlyAnswerKeyFull, IncludeAnswers: true}},
		{"after each keeps flag", "apos_cada_questao", false, true, Policy{Option: AfterEachQuestion, IncludeAnswers: true, PreferAnswerKey: true}},
		{"final section", "final_section", false, false, Policy{Option: FinalSection, IncludeAnswers: true}},
		{"case insensitive", " FINAL_ARQUIVO ", false, false, Policy{Option: FinalSection, IncludeAnswers: true}},
		{"unknown falls back", "no_such_option", true, false, Policy{Option: FinalSection, IncludeAnswers: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePolicy(tt.option, tt.include, tt.useKey); got != tt.want {
				t.Errorf("ResolvePolicy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPolicyDefaultBaseName(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{Policy{Option: OnlyQuestions}, "prova"},
		{Policy{Option: FinalSection}, "prova"},
		{Policy{Option: FinalSection, IncludeAnswers: true}, "prova_com_gabarito"},
		{Policy{Option: OnlyAnswerKey, IncludeAnswers: true}, "prova_com_gabarito"},
		{Policy{Option: AfterEachQuestion, IncludeAnswers: true}, "prova_com_gabarito"},
	}
	for _, tt := range tests {
		if got := tt.policy.DefaultBaseName(); got != tt.want {
			t.Errorf("%s.DefaultBaseName() = %q, want %q", tt.policy.Option, got, tt.want)
		}
	}
}

func TestParseGabaritoOptionRoundTrip(t *testing.T) {
	for _, o := range []GabaritoOption{OnlyQuestions, OnlyAnswerKey, OnlyAnswerKeyFull, AfterEachQuestion, FinalSection} {
		got, ok := ParseGabaritoOption(o.String())
		if !ok || got != o {
			t.Errorf("ParseGabaritoOption(%q) = %v, %v", o.String(), got, ok)
		}
	}
}
