package store

import (
	"context"

	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// SeedFixtures loads a small fixture data set into a Memory store for
// development runs without Postgres.
func SeedFixtures(m *Memory) {
	m.AddUser(&model.User{ID: 100, Username: "peter", Bio: "first author", Token: "token-peter"})
	m.AddUser(&model.User{ID: 200, Username: "julia", Bio: "second author", Token: "token-julia"})

	m.AddCategory(&model.Category{ID: 1, Name: "go"})
	m.AddCategory(&model.Category{ID: 2, Name: "systems"})

	m.AddTag(&model.Tag{ID: 1, Name: "caching"})
	m.AddTag(&model.Tag{ID: 2, Name: "redis"})

	catGo := int64(1)
	posts := []*model.Post{
		{ID: "1", Title: "hi", Body: "first post body", AuthorID: 100, CategoryID: &catGo, TagIDs: []int64{1, 2}, Status: model.StatusPublished},
		{ID: "2", Title: "sup", Body: "second post body", AuthorID: 200, Status: model.StatusPublished},
		{ID: "3", Title: "wip", Body: "unfinished draft", AuthorID: 100, Status: model.StatusDraft},
	}

	for _, p := range posts {
		_ = m.Create(context.Background(), p)
	}
}
