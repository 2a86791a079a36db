package aps

import "github.com/yosida95/uritemplate/v3"

// Route maps one gateway path onto an APS REST endpoint. Path variables share
// names between the chi pattern and the upstream URI template.
type Route struct {
	Name        string
	Pattern     string
	Upstream    string
	Description string

	tmpl *uritemplate.Template
}

// Routes is the passthrough surface, in the order the landing page lists it.
var Routes = []Route{
	{
		Name:        "hubs",
		Pattern:     "/api/hubs",
		Upstream:    "/project/v1/hubs",
		Description: "Hubs the token can see",
	},
	{
		Name:        "hub_projects",
		Pattern:     "/api/hubs/{hubId}/projects",
		Upstream:    "/project/v1/hubs/{hubId}/projects",
		Description: "Projects in a hub",
	},
	{
		Name:        "top_folders",
		Pattern:     "/api/hubs/{hubId}/projects/{projectId}/top-folders",
		Upstream:    "/project/v1/hubs/{hubId}/projects/{projectId}/topFolders",
		Description: "Top-level folders of a project",
	},
	{
		Name:        "folder_contents",
		Pattern:     "/api/projects/{projectId}/folders/{folderId}/contents",
		Upstream:    "/data/v1/projects/{projectId}/folders/{folderId}/contents",
		Description: "Items and subfolders in a folder",
	},
	{
		Name:        "account_companies",
		Pattern:     "/api/accounts/{accountId}/companies",
		Upstream:    "/construction/admin/v1/accounts/{accountId}/companies",
		Description: "Companies in an account",
	},
	{
		Name:        "project_users",
		Pattern:     "/api/projects/{projectId}/users",
		Upstream:    "/construction/admin/v1/projects/{projectId}/users",
		Description: "Members of a project",
	},
	{
		Name:        "industry_roles",
		Pattern:     "/api/accounts/{accountId}/projects/{projectId}/industry-roles",
		Upstream:    "/hq/v2/accounts/{accountId}/projects/{projectId}/industry_roles",
		Description: "Industry roles defined for a project",
	},
	{
		Name:        "folder_permissions",
		Pattern:     "/api/projects/{projectId}/folders/{folderId}/permissions",
		Upstream:    "/bim360/docs/v1/projects/{projectId}/folders/{folderId}/permissions",
		Description: "Permissions granted on a folder",
	},
}

func init() {
	for i := range Routes {
		Routes[i].tmpl = uritemplate.MustNew(Routes[i].Upstream)
	}
}

// expand fills the upstream template; values are percent-encoded so a path
// variable can never add segments.
func (rt Route) expand(param func(string) string) (string, error) {
	vars := uritemplate.Values{}
	for _, name := range rt.tmpl.Varnames() {
		vars.Set(name, uritemplate.String(param(name)))
	}
	return rt.tmpl.Expand(vars)
}
