package driver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

// pageStateKey stores the last fully processed page of a resumable full load.
const pageStateKey = "page"

// pageFn receives one decoded record, in page order.
type pageFn func(record types.Record) error

// readPages drives one partition of a stream to completion: one GET per
// iteration, records yielded in order, page number advanced until the source
// reports a short or empty page. Synchronous by design; parallelism across
// streams belongs to the orchestrator, not here.
func (t *Tally) readPages(ctx context.Context, def *streamDefinition, partition map[string]string, startPage int, checkpoint func(page int) error, fn pageFn) error {
	pageSize := def.pageSize
	if t.config.MaxPageSize > 0 && (pageSize == 0 || t.config.MaxPageSize < pageSize) {
		pageSize = t.config.MaxPageSize
	}

	path := def.resolvePath(partition)
	page := startPage
	if page < 1 {
		page = 1
	}

	for {
		query := url.Values{}
		for key, value := range def.query {
			query.Set(key, value)
		}
		if def.paginated {
			query.Set("page", strconv.Itoa(page))
			if pageSize > 0 {
				query.Set("limit", strconv.Itoa(pageSize))
			}
		}

		records, err := t.fetchPage(ctx, path, query, def.envelope)
		if err != nil {
			return err
		}

		for _, record := range records {
			if err := fn(record); err != nil {
				return err
			}
		}

		if !def.paginated || len(records) == 0 || (pageSize > 0 && len(records) < pageSize) {
			return nil
		}
		if checkpoint != nil {
			if err := checkpoint(page); err != nil {
				return err
			}
		}
		page++
	}
}

// fetchPage issues one GET and unwraps the records from the endpoint's
// response envelope. A missing envelope key counts as an empty page; an
// undecodable body is fatal for the stream.
func (t *Tally) fetchPage(ctx context.Context, path string, query url.Values, envelope string) ([]types.Record, error) {
	if envelope == "" {
		var records []types.Record
		if err := t.client.Get(ctx, path, query, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var body map[string]json.RawMessage
	if err := t.client.Get(ctx, path, query, &body); err != nil {
		return nil, err
	}
	raw, found := body[envelope]
	if !found {
		return nil, nil
	}
	var records []types.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %s key of %s: %s", ErrMalformed, envelope, path, err)
	}
	return records, nil
}

// partitions resolves the request scopes of a stream: one per organization
// for organization-scoped streams, one per form for form children, a single
// unscoped partition otherwise.
func (t *Tally) partitions(ctx context.Context, def *streamDefinition) ([]map[string]string, error) {
	switch def.parent {
	case parentOrganization:
		ids, err := t.organizationIDs(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, map[string]string{"organizationId": id})
		}
		return out, nil
	case parentForms:
		ids, err := t.formIDs(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, map[string]string{"formId": id})
		}
		return out, nil
	default:
		return []map[string]string{nil}, nil
	}
}

func (t *Tally) organizationIDs(ctx context.Context) ([]string, error) {
	if len(t.config.OrganizationIDs) > 0 {
		return t.config.OrganizationIDs, nil
	}

	// no organizations configured; fall back to the caller's own
	var me struct {
		OrganizationID string `json:"organizationId"`
	}
	if err := t.client.Get(ctx, "/users/me", nil, &me); err != nil {
		return nil, err
	}
	if me.OrganizationID == "" {
		return nil, fmt.Errorf("no organization_ids configured and /users/me returned none")
	}
	return []string{me.OrganizationID}, nil
}

// formIDs pages through the forms endpoint once per sync and caches the ids
// for both child streams.
func (t *Tally) formIDs(ctx context.Context) ([]string, error) {
	if t.forms != nil {
		return t.forms, nil
	}

	formsDef, _ := definition("forms")
	ids := []string{}
	err := t.readPages(ctx, formsDef, nil, 1, nil, func(record types.Record) error {
		id, ok := record[constants.PrimaryKey].(string)
		if !ok {
			return fmt.Errorf("%w: form record without string id", ErrMalformed)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list parent forms: %s", err)
	}

	logger.Debugf("resolved %d parent forms", len(ids))
	t.forms = ids
	return ids, nil
}

// saveState persists the in-memory state file after a page checkpoint, so an
// interrupted full load resumes from the last completed page.
func (t *Tally) saveState() error {
	statePath := viper.GetString(constants.StatePath)
	if statePath == "" || t.state == nil {
		return nil
	}
	return utils.WriteJSONFile(statePath, t.state)
}
