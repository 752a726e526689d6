package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/scrape"
)

const ScrapeURLName = "scrape_url"

type ScrapeArgs struct {
	URL string `json:"url" jsonschema_description:"Absolute URL of the page to read"`
}

func NewScrapeURLTool(service *scrape.Service) (*FuncTool[ScrapeArgs], error) {
	return NewFuncTool(ScrapeURLName, "Scrape webpage content",
		func(ctx context.Context, args ScrapeArgs) (string, error) {
			page := service.Fetch(ctx, args.URL)

			payload, err := json.Marshal(page)
			if err != nil {
				return "", errors.Wrap(err, "failed to encode page")
			}

			return string(payload), nil
		},
	)
}
