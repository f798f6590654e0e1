package toolhost

import (
	"context"

	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// RegisterPortalTools wires get_grades and get_schedule against the
// scraper collaborator. The caller-supplied cookie is opaque to the
// core; it is forwarded verbatim to the scraper.
func RegisterPortalTools(h *Host, scraper interfaces.PortalScraper) {
	h.Register("get_grades", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		cookie, err := requireString(args, "cookie")
		if err != nil {
			return nil, err
		}
		return scraper.GetGrades(ctx, cookie)
	})

	h.Register("get_schedule", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		cookie, err := requireString(args, "cookie")
		if err != nil {
			return nil, err
		}
		return scraper.GetSchedule(ctx, cookie)
	})
}
