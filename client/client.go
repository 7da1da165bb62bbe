// Package client is a small typed HTTP client for the blogapi service.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Client struct {
	http.Client
	Addr string

	// Token authenticates requests when set.
	Token string
}

// PostDetail mirrors the merged detail response.
type PostDetail struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Body      string `json:"body"`
	Views     int64  `json:"views"`
	IsLiked   bool   `json:"is_liked"`
	LikeCount int64  `json:"like_count"`
}

// LikeResult mirrors the toggle acknowledgement.
type LikeResult struct {
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

func (c *Client) do(method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, c.Addr+path, body)
	if err != nil {
		return err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Token "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Ping() (string, error) {
	req, err := http.NewRequest("GET", c.Addr+"/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), err
}

// GetPost fetches the merged detail page for a post.
func (c *Client) GetPost(id string) (*PostDetail, error) {
	detail := &PostDetail{}
	if err := c.do("GET", "/posts/"+id, nil, detail); err != nil {
		return nil, err
	}

	return detail, nil
}

// ToggleLike flips the like for the authenticated user.
func (c *Client) ToggleLike(id string) (*LikeResult, error) {
	result := &LikeResult{}
	if err := c.do("POST", "/posts/"+id+"/like", nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// CreatePost publishes a new post as the authenticated user.
func (c *Client) CreatePost(title, body string) (*PostDetail, error) {
	payload, err := json.Marshal(map[string]string{"title": title, "body": body})
	if err != nil {
		return nil, err
	}

	created := &PostDetail{}
	if err := c.do("POST", "/posts", bytes.NewReader(payload), created); err != nil {
		return nil, err
	}

	return created, nil
}
