package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chantierflow/chantierflow/internal/i18n"
)

const localeCookieName = "lang"

// requestLocale picks the response language: explicit ?lang= first,
// then the locale cookie, then the user's stored preference, then the
// Accept-Language header.
func (s *Server) requestLocale(c *gin.Context) string {
	explicit := c.Query("lang")
	if explicit == "" {
		if cookie, err := c.Cookie(localeCookieName); err == nil {
			explicit = cookie
		}
	}

	preferred := ""
	if user, ok := currentUser(c); ok {
		preferred = user.PreferredLanguage
	}
	return s.translator.ResolveLocale(explicit, preferred, c.GetHeader("Accept-Language"))
}

func (s *Server) GetLocaleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locale":    s.requestLocale(c),
		"supported": i18n.SupportedLanguages,
	})
}

// SetLocale stores the caller's language choice in a cookie so later
// requests render in it without a ?lang= parameter.
func (s *Server) SetLocale(c *gin.Context) {
	lang := c.Param("lang")
	if !s.translator.Supported(lang) {
		AbortWithError(c, invalidRequestError())
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(localeCookieName, lang, int((365 * 24 * time.Hour).Seconds()), "/", "", s.cfg.AuthCookieSecure, false)
	c.JSON(http.StatusOK, gin.H{
		"locale":    lang,
		"supported": i18n.SupportedLanguages,
	})
}
