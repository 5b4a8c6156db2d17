package model

import "github.com/m-mizutani/bbmirror/pkg/domain/types"

// Project represents a Bitbucket Server project with its repositories.
// Instances are immutable once assembled into a snapshot; a refresh replaces
// them wholesale.
type Project struct {
	Key          types.ProjectKey `json:"key"`
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Public       bool             `json:"public"`
	Link         string           `json:"link,omitempty"`
	Repositories []*Repository    `json:"repositories"`
}

// Repository represents a repository owned by exactly one project.
type Repository struct {
	Slug       types.RepoSlug   `json:"slug"`
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	ProjectKey types.ProjectKey `json:"project_key"`
	State      string           `json:"state,omitempty"`
	Public     bool             `json:"public"`
	CloneLinks []CloneLink      `json:"clone_links,omitempty"`
	Link       string           `json:"link,omitempty"`
}

type CloneLink struct {
	Name string `json:"name"`
	HRef string `json:"href"`
}

// ProjectPage is one page of the upstream project listing.
type ProjectPage struct {
	Values        []*Project
	IsLastPage    bool
	NextPageStart int
}

// RepositoryPage is one page of the upstream repository listing for a project.
type RepositoryPage struct {
	Values        []*Repository
	IsLastPage    bool
	NextPageStart int
}
