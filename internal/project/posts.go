package project

import (
	"errors"
	"path/filepath"

	"github.com/piwi3910/slabcam/internal/model"
)

// DefaultPostsPath returns the default file path for custom post templates.
func DefaultPostsPath() string {
	return filepath.Join(DefaultConfigDir(), "posts.json")
}

// SavePosts saves custom post templates to a JSON file.
func SavePosts(path string, posts []model.PostTemplate) error {
	return saveJSON(path, posts)
}

// LoadPosts loads custom post templates from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadPosts(path string) ([]model.PostTemplate, error) {
	posts := []model.PostTemplate{}
	if _, err := loadJSON(path, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i] = posts[i].Normalized()
	}
	return posts, nil
}

// ExportPost writes a single post template to a JSON file for sharing.
func ExportPost(path string, post model.PostTemplate) error {
	return saveJSON(path, post)
}

// ImportPost reads a single post template from a JSON file.
func ImportPost(path string) (model.PostTemplate, error) {
	var post model.PostTemplate
	found, err := loadJSON(path, &post)
	if err != nil {
		return model.PostTemplate{}, err
	}
	if !found {
		return model.PostTemplate{}, errors.New("post template file not found")
	}
	if post.Name == "" {
		return model.PostTemplate{}, errors.New("imported post template has no name")
	}
	return post.Normalized(), nil
}

// UpsertPost replaces the custom post with the same name or appends it.
func UpsertPost(posts []model.PostTemplate, post model.PostTemplate) []model.PostTemplate {
	for i := range posts {
		if posts[i].Name == post.Name {
			posts[i] = post
			return posts
		}
	}
	return append(posts, post)
}
