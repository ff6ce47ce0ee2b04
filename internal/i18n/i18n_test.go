package i18n

import "testing"

func TestTranslate(t *testing.T) {
	defer SetLanguage(LangEnglish)

	SetLanguageFromString("zh-cn")
	if got := T(MsgChainHeader, 3); got != "链 (3 个块)" {
		t.Errorf("zh: %q", got)
	}
	SetLanguageFromString("fr")
	if got := T(MsgChainHeader, 3); got != "Chain (3 blocks)" {
		t.Errorf("fallback to en: %q", got)
	}
	if got := TL(LangChinese, "no.such.id"); got != "no.such.id" {
		t.Errorf("unknown id: %q", got)
	}
}

func TestCatalogsMatch(t *testing.T) {
	for id := range messagesEN {
		if _, ok := messagesZH[id]; !ok {
			t.Errorf("missing zh message %s", id)
		}
	}
	for id := range messagesZH {
		if _, ok := messagesEN[id]; !ok {
			t.Errorf("missing en message %s", id)
		}
	}
}
