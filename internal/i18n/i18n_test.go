package i18n

import (
	"testing"

	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/stretchr/testify/require"
)

func newTranslator(t *testing.T) *Translator {
	t.Helper()

	tr, err := New(config.Config{DefaultLanguage: "fr"})
	require.NoError(t, err)
	return tr
}

func TestTranslateFallbackChain(t *testing.T) {
	tr := newTranslator(t)

	require.Equal(t, "Draft", tr.Translate("en", "order.status.BROUILLON"))
	require.Equal(t, "Brouillon", tr.Translate("fr", "order.status.BROUILLON"))

	// Unknown locale falls back to the default language.
	require.Equal(t, "Brouillon", tr.Translate("de", "order.status.BROUILLON"))

	// Unknown key echoes the key.
	require.Equal(t, "does.not.exist", tr.Translate("fr", "does.not.exist"))
}

func TestResolveLocale(t *testing.T) {
	tr := newTranslator(t)

	require.Equal(t, "ar", tr.ResolveLocale("ar", "en", "fr"))
	require.Equal(t, "en", tr.ResolveLocale("", "en", "fr"))
	require.Equal(t, "es", tr.ResolveLocale("", "", "es-ES,es;q=0.9,en;q=0.8"))
	require.Equal(t, "fr", tr.ResolveLocale("", "", "de-DE,de;q=0.9"))
	require.Equal(t, "fr", tr.ResolveLocale("klingon", "", ""))
}
