package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hession/researcher/internal/websearch"
)

const WebSearchName = "web_search"

type SearchArgs struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

// NewWebSearchTool exposes the search service to the model. The result is
// the JSON encoding of websearch.Response.
func NewWebSearchTool(service *websearch.Service) (*FuncTool[SearchArgs], error) {
	return NewFuncTool(WebSearchName, "Search the web and return top results",
		func(ctx context.Context, args SearchArgs) (string, error) {
			resp := service.Search(ctx, args.Query)

			payload, err := json.Marshal(resp)
			if err != nil {
				return "", errors.Wrap(err, "failed to encode response")
			}

			return string(payload), nil
		},
	)
}
