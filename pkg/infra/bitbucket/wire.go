package bitbucket

import (
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
)

// wirePage is the paged response envelope used across the Bitbucket Server
// REST API.
type wirePage[T any] struct {
	Size          int  `json:"size"`
	Limit         int  `json:"limit"`
	IsLastPage    bool `json:"isLastPage"`
	Start         int  `json:"start"`
	NextPageStart int  `json:"nextPageStart"`
	Values        []T  `json:"values"`
}

type wireLink struct {
	HRef string `json:"href"`
	Name string `json:"name,omitempty"`
}

type wireLinks struct {
	Clone []wireLink `json:"clone,omitempty"`
	Self  []wireLink `json:"self,omitempty"`
}

type wireProject struct {
	Key         string    `json:"key"`
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	Links       wireLinks `json:"links"`
}

func (x *wireProject) toModel(projectsURL string) *model.Project {
	proj := &model.Project{
		Key:         types.ProjectKey(x.Key),
		ID:          x.ID,
		Name:        x.Name,
		Description: x.Description,
		Public:      x.Public,
	}

	if len(x.Links.Self) > 0 {
		proj.Link = x.Links.Self[0].HRef
	} else if projectsURL != "" {
		proj.Link = projectsURL + "/" + x.Key
	}

	return proj
}

type wireRepository struct {
	Slug    string `json:"slug"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Public  bool   `json:"public"`
	Project struct {
		Key string `json:"key"`
	} `json:"project"`
	Links wireLinks `json:"links"`
}

func (x *wireRepository) toModel(project types.ProjectKey) *model.Repository {
	repo := &model.Repository{
		Slug:       types.RepoSlug(x.Slug),
		ID:         x.ID,
		Name:       x.Name,
		ProjectKey: project,
		State:      x.State,
		Public:     x.Public,
	}

	for _, link := range x.Links.Clone {
		repo.CloneLinks = append(repo.CloneLinks, model.CloneLink{
			Name: link.Name,
			HRef: link.HRef,
		})
	}
	if len(x.Links.Self) > 0 {
		repo.Link = x.Links.Self[0].HRef
	}

	return repo
}
