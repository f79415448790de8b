package driver

import (
	"strings"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/types"
)

// parent scopes for partitioned streams
const (
	parentOrganization = "organization"
	parentForms        = "forms"
)

type fieldDef struct {
	name string
	typ  types.DataType
}

// streamDefinition declares one Tally resource: endpoint, response envelope,
// pagination behavior, parent linkage and output schema.
type streamDefinition struct {
	name        string
	path        string // may contain {organizationId} or {formId}
	envelope    string // JSON key wrapping the records; empty means bare array
	paginated   bool
	pageSize    int
	parent      string
	cursorField string
	query       map[string]string
	fields      []fieldDef
}

func (d *streamDefinition) resolvePath(partition map[string]string) string {
	path := d.path
	for key, value := range partition {
		path = strings.ReplaceAll(path, "{"+key+"}", value)
	}
	return path
}

func (d *streamDefinition) intoStream() *types.Stream {
	stream := types.NewStream(d.name, "").
		WithSyncMode(types.FULLREFRESH).
		WithPrimaryKey(constants.PrimaryKey)
	if d.cursorField != "" {
		stream.WithCursorField(d.cursorField)
		stream.CursorField = d.cursorField
	}
	for _, field := range d.fields {
		stream.UpsertField(field.name, field.typ, field.name != constants.PrimaryKey)
	}
	return stream
}

var streamDefinitions = []*streamDefinition{
	{
		name:        "users",
		path:        "/organizations/{organizationId}/users",
		parent:      parentOrganization,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"firstName", types.STRING},
			{"lastName", types.STRING},
			{"fullName", types.STRING},
			{"email", types.STRING},
			{"avatarUrl", types.STRING},
			{"organizationId", types.STRING},
			{"isBlocked", types.BOOL},
			{"isDeleted", types.BOOL},
			{"timezone", types.STRING},
			{"hasTwoFactorEnabled", types.BOOL},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
			{"subscriptionPlan", types.STRING},
			{"ssoIsConnectedWithGoogle", types.BOOL},
			{"ssoIsConnectedWithApple", types.BOOL},
			{"hasPasswordSet", types.BOOL},
			{"authenticationMethodsCount", types.INT64},
			{"emailDomain", types.STRING},
		},
	},
	{
		name:        "invites",
		path:        "/organizations/{organizationId}/invites",
		parent:      parentOrganization,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"organizationId", types.STRING},
			{"email", types.STRING},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
		},
	},
	{
		name:        "forms",
		path:        "/forms",
		envelope:    "items",
		paginated:   true,
		pageSize:    constants.FormsPageSize,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"name", types.STRING},
			{"workspaceId", types.STRING},
			{"status", types.STRING},
			{"numberOfSubmissions", types.INT64},
			{"isClosed", types.BOOL},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
			{"payments", types.OBJECT},
		},
	},
	{
		name:        "questions",
		path:        "/forms/{formId}/questions",
		envelope:    "questions",
		parent:      parentForms,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"type", types.STRING},
			{"title", types.STRING},
			{"isTitleModifiedByUser", types.BOOL},
			{"formId", types.STRING},
			{"isDeleted", types.BOOL},
			{"numberOfResponses", types.INT64},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
			{"fields", types.ARRAY},
			{"hasResponses", types.BOOL},
		},
	},
	{
		name:        "submissions",
		path:        "/forms/{formId}/submissions",
		envelope:    "submissions",
		paginated:   true,
		pageSize:    constants.SubmissionsPageSize,
		parent:      parentForms,
		cursorField: "submittedAt",
		query:       map[string]string{"filter": "all"},
		fields: []fieldDef{
			{"id", types.STRING},
			{"formId", types.STRING},
			{"isCompleted", types.BOOL},
			{"submittedAt", types.TIMESTAMP},
			{"responses", types.ARRAY},
		},
	},
	{
		name:        "workspaces",
		path:        "/workspaces",
		envelope:    "items",
		paginated:   true,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"name", types.STRING},
			{"members", types.ARRAY},
			{"invites", types.ARRAY},
			{"createdByUserId", types.STRING},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
		},
	},
	{
		name:        "webhooks",
		path:        "/webhooks",
		envelope:    "webhooks",
		paginated:   true,
		pageSize:    constants.WebhooksPageSize,
		cursorField: "updatedAt",
		fields: []fieldDef{
			{"id", types.STRING},
			{"formId", types.STRING},
			{"url", types.STRING},
			{"signingSecret", types.STRING},
			{"httpHeaders", types.ARRAY},
			{"eventTypes", types.ARRAY},
			{"externalSubscriber", types.STRING},
			{"isEnabled", types.BOOL},
			{"lastSyncedAt", types.TIMESTAMP},
			{"createdAt", types.TIMESTAMP},
			{"updatedAt", types.TIMESTAMP},
		},
	},
}

func definition(name string) (*streamDefinition, bool) {
	for _, def := range streamDefinitions {
		if def.name == name {
			return def, true
		}
	}
	return nil, false
}
