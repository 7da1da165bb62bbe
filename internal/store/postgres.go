package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Load(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT id, title, body, author_id, category_id, status, views, created_at, updated_at
	          FROM posts WHERE id = $1`

	post := &model.Post{}
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.CategoryID,
		&post.Status, &post.Views, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (p *Postgres) LoadWithRelations(ctx context.Context, id string) (*model.PostRelations, error) {
	post, err := p.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	rel := &model.PostRelations{Post: post}

	authorQuery := `SELECT id, username, COALESCE(avatar, ''), COALESCE(bio, '') FROM users WHERE id = $1`
	author := &model.User{}
	err = p.pool.QueryRow(ctx, authorQuery, post.AuthorID).Scan(
		&author.ID, &author.Username, &author.Avatar, &author.Bio,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err == nil {
		rel.Author = author
	}

	if post.CategoryID != nil {
		category := &model.Category{}
		err = p.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, *post.CategoryID).
			Scan(&category.ID, &category.Name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err == nil {
			rel.Category = category
		}
	}

	tagRows, err := p.pool.Query(ctx,
		`SELECT t.id, t.name FROM tags t JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = $1 ORDER BY t.id`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var tag model.Tag
		if err := tagRows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rel.Tags = append(rel.Tags, tag)
		post.TagIDs = append(post.TagIDs, tag.ID)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, id).
		Scan(&rel.CommentCount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rel, nil
}

func (p *Postgres) List(ctx context.Context, viewerID int64, authenticated bool) ([]*model.Post, error) {
	query := `SELECT id, title, body, author_id, category_id, status, views, created_at, updated_at
	          FROM posts WHERE status = 'published'`
	args := []interface{}{}

	// Ownership-or-published visibility: authenticated viewers also see
	// their own drafts.
	if authenticated {
		query = `SELECT id, title, body, author_id, category_id, status, views, created_at, updated_at
		         FROM posts WHERE status = 'published' OR author_id = $1`
		args = append(args, viewerID)
	}

	rows, err := p.pool.Query(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		err := rows.Scan(&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.CategoryID,
			&post.Status, &post.Views, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return posts, nil
}

func (p *Postgres) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	query := `INSERT INTO posts (id, title, body, author_id, category_id, status, views)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`

	err := p.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Body, post.AuthorID, post.CategoryID, post.Status, post.Views,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return p.replaceTags(ctx, post.ID, post.TagIDs)
}

func (p *Postgres) Update(ctx context.Context, post *model.Post) error {
	query := `UPDATE posts SET title = $2, body = $3, category_id = $4, status = $5, updated_at = now()
	          WHERE id = $1
	          RETURNING updated_at`

	err := p.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Body, post.CategoryID, post.Status,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}

		return fmt.Errorf("db error: %w", err)
	}

	return p.replaceTags(ctx, post.ID, post.TagIDs)
}

func (p *Postgres) replaceTags(ctx context.Context, postID string, tagIDs []int64) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, tagID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) UpdateViews(ctx context.Context, id string, views int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE posts SET views = $2 WHERE id = $1`, id, views)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) LikeMemberIDs(ctx context.Context, postID string) ([]int64, error) {
	rows, err := p.pool.Query(ctx, `SELECT user_id FROM post_likes WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func (p *Postgres) AddLikeMember(ctx context.Context, postID string, userID int64) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (p *Postgres) RemoveLikeMember(ctx context.Context, postID string, userID int64) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (p *Postgres) UserByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, COALESCE(avatar, ''), COALESCE(bio, '') FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Username, &user.Avatar, &user.Bio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (p *Postgres) UserByToken(ctx context.Context, token string) (*model.User, error) {
	user := &model.User{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, COALESCE(avatar, ''), COALESCE(bio, '') FROM users WHERE token = $1`, token).
		Scan(&user.ID, &user.Username, &user.Avatar, &user.Bio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Token = token

	return user, nil
}

func (p *Postgres) AddComment(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	err := p.pool.QueryRow(ctx,
		`INSERT INTO comments (id, post_id, author_id, body) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Body,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (p *Postgres) Comments(ctx context.Context, postID string) ([]*model.Comment, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, post_id, author_id, body, created_at FROM comments WHERE post_id = $1 ORDER BY created_at`,
		postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return comments, nil
}

func (p *Postgres) Categories(ctx context.Context) ([]*model.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return categories, nil
}
