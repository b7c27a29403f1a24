package handler

import (
	"net/http"
	"strings"

	"lennonwall/backend/internal/localization"
	"lennonwall/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type reasonOption struct {
	Code  models.ReportReason `json:"code"`
	Label string              `json:"label"`
}

// ListReportReasons returns the report reasons with labels in the language
// given by ?lang= or the Accept-Language header, along with the languages a
// client may ask for.
func (h *Handler) ListReportReasons(c *gin.Context) {
	lang := h.language(c)
	reasons := make([]reasonOption, 0, len(models.AllReasons))
	for _, r := range models.AllReasons {
		reasons = append(reasons, reasonOption{
			Code:  r,
			Label: h.Localizer.GetString(lang, r.LabelKey()),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"lang":      lang,
		"languages": h.Localizer.Languages(),
		"reasons":   reasons,
	})
}

func (h *Handler) language(c *gin.Context) string {
	candidates := []string{c.Query("lang")}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		candidates = append(candidates, strings.SplitN(tag, "-", 2)[0])
	}
	for _, lang := range candidates {
		lang = strings.ToLower(lang)
		if lang != "" && h.Localizer.Has(lang) {
			return lang
		}
	}
	return localization.DefaultLanguage
}
