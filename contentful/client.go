package contentful

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"recipe-api/domain"
)

const (
	// DefaultBaseURL is the Contentful delivery API host.
	DefaultBaseURL = "https://cdn.contentful.com"

	defaultTimeout = 10 * time.Second
	contentType    = "blogPost"
	excerptRunes   = 280
)

// ErrNotFound is returned when no post matches the requested slug.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "post not found" }
func (notFoundError) NotFound()     {}

// Client reads blog posts from the CMS delivery API.
type Client struct {
	baseURL     string
	spaceID     string
	environment string
	accessToken string
	http        *http.Client
}

// New creates a Client. baseURL falls back to DefaultBaseURL, environment
// to "master".
func New(baseURL, spaceID, environment, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if environment == "" {
		environment = "master"
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		spaceID:     spaceID,
		environment: environment,
		accessToken: accessToken,
		http:        &http.Client{Timeout: defaultTimeout},
	}
}

type entriesResponse struct {
	Items []struct {
		Sys struct {
			ID        string `json:"id"`
			CreatedAt string `json:"createdAt"`
		} `json:"sys"`
		Fields struct {
			Title       string `json:"title"`
			Slug        string `json:"slug"`
			Author      string `json:"author"`
			Body        string `json:"body"`
			PublishDate string `json:"publishDate"`
		} `json:"fields"`
	} `json:"items"`
}

// ListPosts returns up to limit posts, newest first, with bodies reduced to
// excerpts.
func (c *Client) ListPosts(ctx context.Context, limit int) ([]domain.BlogPost, error) {
	q := url.Values{}
	q.Set("order", "-fields.publishDate")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	wire, err := c.entries(ctx, q)
	if err != nil {
		return nil, err
	}
	posts := make([]domain.BlogPost, 0, len(wire.Items))
	for _, item := range wire.Items {
		post := itemToPost(item.Sys.ID, item.Sys.CreatedAt, item.Fields.Title, item.Fields.Slug,
			item.Fields.Author, item.Fields.Body, item.Fields.PublishDate)
		post.Body = ""
		posts = append(posts, post)
	}
	return posts, nil
}

// PostBySlug returns the full post for a slug.
func (c *Client) PostBySlug(ctx context.Context, slug string) (domain.BlogPost, error) {
	q := url.Values{}
	q.Set("fields.slug", slug)
	q.Set("limit", "1")
	wire, err := c.entries(ctx, q)
	if err != nil {
		return domain.BlogPost{}, err
	}
	if len(wire.Items) == 0 {
		return domain.BlogPost{}, ErrNotFound
	}
	item := wire.Items[0]
	return itemToPost(item.Sys.ID, item.Sys.CreatedAt, item.Fields.Title, item.Fields.Slug,
		item.Fields.Author, item.Fields.Body, item.Fields.PublishDate), nil
}

func (c *Client) entries(ctx context.Context, q url.Values) (entriesResponse, error) {
	q.Set("content_type", contentType)
	q.Set("access_token", c.accessToken)
	target := fmt.Sprintf("%s/spaces/%s/environments/%s/entries?%s",
		c.baseURL, c.spaceID, c.environment, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return entriesResponse{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return entriesResponse{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return entriesResponse{}, fmt.Errorf("cms entries: status %d", resp.StatusCode)
	}
	var wire entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return entriesResponse{}, fmt.Errorf("cms entries: decode: %w", err)
	}
	return wire, nil
}

func itemToPost(id, createdAt, title, slug, author, body, publishDate string) domain.BlogPost {
	if publishDate == "" {
		publishDate = createdAt
	}
	return domain.BlogPost{
		ID:          id,
		Slug:        slug,
		Title:       title,
		Author:      author,
		Excerpt:     excerpt(body),
		Body:        body,
		PublishedAt: publishDate,
	}
}

// excerpt strips the HTML body down to plain text and truncates it on a word
// boundary.
func excerpt(body string) string {
	if body == "" {
		return ""
	}
	text := body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}
	runes := []rune(text)
	cut := excerptRunes
	for cut > 0 && runes[cut-1] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = excerptRunes
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
